// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package visibility

import (
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-survey/models"
)

// Status is a respondent's relationship to a survey.
type Status string

const (
	StatusUnansweredOpen   Status = "unanswered_open"
	StatusUnansweredClosed Status = "unanswered_closed"
	StatusDraft            Status = "draft"
	StatusSubmittedOpen    Status = "submitted_open"
	StatusSubmittedExpired Status = "submitted_expired"
)

// NullEndDate decides what a missing end_date means to respondents.
type NullEndDate string

const (
	// NullEndDateClosed keeps a survey without an end_date closed until an
	// admin publishes it with one.
	NullEndDateClosed NullEndDate = "closed"
	// NullEndDateOpen treats a missing end_date as never expiring.
	NullEndDateOpen NullEndDate = "open"
)

// ParseNullEndDate parses a policy name from configuration.
func ParseNullEndDate(s string) (NullEndDate, error) {
	switch NullEndDate(strings.ToLower(strings.TrimSpace(s))) {
	case "", NullEndDateClosed:
		return NullEndDateClosed, nil
	case NullEndDateOpen:
		return NullEndDateOpen, nil
	default:
		return "", fmt.Errorf("unknown null end date policy %q (want closed or open)", s)
	}
}

type Policy struct {
	NullEndDate NullEndDate
	// Location is used to read end dates without a zone. Defaults to UTC.
	Location *time.Location
}

// DefaultPolicy keeps surveys without an end_date closed.
func DefaultPolicy() Policy {
	return Policy{NullEndDate: NullEndDateClosed, Location: time.UTC}
}

// Window is the answering window of a survey at a point in time.
type Window struct {
	Open bool
	// Closes is the first instant the survey is no longer open. Nil when
	// the survey has no end_date.
	Closes *time.Time
	// Err is set when the stored end_date could not be read.
	Err *models.MalformedDataError
}

// Window evaluates whether survey accepts answers at now.
func (p Policy) Window(survey models.Survey, now time.Time) Window {
	if survey.EndDate == nil || strings.TrimSpace(*survey.EndDate) == "" {
		return Window{Open: p.NullEndDate == NullEndDateOpen}
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	end, dateOnly, err := models.ParseEndDate(*survey.EndDate, loc)
	if err != nil {
		return Window{Err: &models.MalformedDataError{
			Field: "end_date",
			RowID: survey.SurveyID,
			Value: *survey.EndDate,
			Err:   err,
		}}
	}

	// A bare date stays open for the whole day.
	closes := end
	if dateOnly {
		closes = end.AddDate(0, 0, 1)
		return Window{Open: now.Before(closes), Closes: &closes}
	}
	return Window{Open: !now.After(end), Closes: &closes}
}

// Classification is the outcome of Classify.
type Classification struct {
	Status Status
	Window Window
}

// Editable reports whether answers may still be saved or submitted.
func (c Classification) Editable() bool {
	switch c.Status {
	case StatusUnansweredOpen, StatusDraft, StatusSubmittedOpen:
		return true
	}
	return false
}

// ReadOnly reports whether the respondent may only view a finished submission.
func (c Classification) ReadOnly() bool {
	return c.Status == StatusSubmittedExpired
}

// Classify decides the respondent's status. Final answers take precedence
// over drafts, and drafts on a closed survey count as unanswered.
func (p Policy) Classify(survey models.Survey, presence models.Presence, now time.Time) Classification {
	w := p.Window(survey, now)
	c := Classification{Window: w}

	switch {
	case presence.HasFinal && w.Open:
		c.Status = StatusSubmittedOpen
	case presence.HasFinal:
		c.Status = StatusSubmittedExpired
	case !w.Open:
		c.Status = StatusUnansweredClosed
	case presence.HasDraft:
		c.Status = StatusDraft
	default:
		c.Status = StatusUnansweredOpen
	}
	return c
}
