// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the layout of a date-only end_date.
const DateLayout = "2006-01-02"

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseEndDate parses a stored end_date. dateOnly is true when the value
// carries no time of day, in which case the whole day counts.
func ParseEndDate(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, true, nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised date %q", s)
}

// SurveyInput carries the writable fields of a survey.
type SurveyInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	EndDate     *string `json:"end_date" validate:"omitempty,enddate"`
}

// Normalize trims whitespace and turns blank optional fields into nil.
func (in *SurveyInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = blankToNil(in.Description)
	in.EndDate = blankToNil(in.EndDate)
}

func (in *SurveyInput) Validate() error {
	in.Normalize()
	return check(in)
}

// QuestionInput carries the writable fields of a question. A zero
// PageNumber or OrderNumber asks for the next available position.
type QuestionInput struct {
	QuestionText string   `json:"question_text" validate:"required"`
	QuestionType string   `json:"question_type" validate:"required,oneof=text single multi"`
	Options      []string `json:"options" validate:"omitempty,unique"`
	OrderNumber  int      `json:"order_number" validate:"gte=0,lte=1000"`
	PageNumber   int      `json:"page_number" validate:"gte=0,lte=1000"`
	Image        []byte   `json:"image,omitempty"`
	ImageURL     *string  `json:"image_url" validate:"omitempty,url"`
	ClearImage   bool     `json:"clear_image"`
}

func (in *QuestionInput) Normalize() {
	in.QuestionText = strings.TrimSpace(in.QuestionText)
	in.QuestionType = strings.ToLower(strings.TrimSpace(in.QuestionType))
	in.ImageURL = blankToNil(in.ImageURL)

	var opts []string
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	in.Options = opts
}

func (in *QuestionInput) Validate() error {
	in.Normalize()

	var problems []string
	if err := check(in); err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		problems = append(problems, ve.Problems...)
	}

	switch in.QuestionType {
	case TypeSingle, TypeMulti:
		if len(in.Options) == 0 {
			problems = append(problems, "options are required for choice questions")
		}
	case TypeText:
		if len(in.Options) > 0 {
			problems = append(problems, "options are not allowed for text questions")
		}
	}

	if len(problems) > 0 {
		return NewValidationError(problems...)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("enddate", func(fl validator.FieldLevel) bool {
		_, _, err := ParseEndDate(fl.Field().String(), time.UTC)
		return err == nil
	})
	return v
}

// check runs struct tag validation and converts failures to a ValidationError.
func check(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return NewValidationError(problems...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "unique":
		return fe.Field() + " must not contain duplicates"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "url":
		return fe.Field() + " must be a valid URL"
	case "enddate":
		return fe.Field() + " must be a date (YYYY-MM-DD) or a date and time"
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
