// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pagination

import (
	"fmt"
	"sort"

	"github.com/danielhkuo/quickly-survey/models"
)

// Page is one navigation unit. Number is 1-based.
type Page struct {
	Number    int
	Questions []models.Question
}

// Pages is a survey's questions grouped by page, in page order.
type Pages []Page

// Build groups questions by page_number into pages numbered from 1 in
// ascending page_number order. Only page numbers that carry questions make
// a page; a survey without questions still has one empty page.
func Build(questions []models.Question) Pages {
	byNumber := make(map[int][]models.Question)
	for _, q := range questions {
		n := max(q.PageNumber, 1)
		byNumber[n] = append(byNumber[n], q)
	}

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	if len(numbers) == 0 {
		return Pages{{Number: 1}}
	}

	pages := make(Pages, len(numbers))
	for i, n := range numbers {
		qs := byNumber[n]
		sort.SliceStable(qs, func(a, b int) bool {
			if qs[a].OrderNumber != qs[b].OrderNumber {
				return qs[a].OrderNumber < qs[b].OrderNumber
			}
			return qs[a].QuestionID < qs[b].QuestionID
		})
		pages[i] = Page{Number: i + 1, Questions: qs}
	}
	return pages
}

func (p Pages) Count() int {
	return len(p)
}

// Questions returns every question in page and display order.
func (p Pages) Questions() []models.Question {
	var out []models.Question
	for _, page := range p {
		out = append(out, page.Questions...)
	}
	return out
}

// Missing lists a warning for every required question on page index that
// has no answer in values.
func (p Pages) Missing(index int, values map[string]models.Value) []string {
	if index < 0 || index >= len(p) {
		return nil
	}
	var warnings []string
	for _, q := range p[index].Questions {
		if !q.Required() {
			continue
		}
		if v, ok := values[q.QuestionID]; !ok || v.Empty() {
			warnings = append(warnings, fmt.Sprintf("%q requires an answer", q.QuestionText))
		}
	}
	return warnings
}

// MissingAll is Missing over every page.
func (p Pages) MissingAll(values map[string]models.Value) []string {
	var warnings []string
	for i := range p {
		warnings = append(warnings, p.Missing(i, values)...)
	}
	return warnings
}

// State is the navigation state of one respondent session. It is owned by
// the caller and passed explicitly to every navigation step.
type State struct {
	SurveyID    string `json:"survey_id"`
	CurrentPage int    `json:"current_page"`
}

// Enter points the state at surveyID. Switching to a different survey
// resets the cursor to the first page. It reports whether a reset happened.
func (s *State) Enter(surveyID string) bool {
	if s.SurveyID == surveyID {
		return false
	}
	s.SurveyID = surveyID
	s.CurrentPage = 0
	return true
}

// Clamp keeps the cursor inside [0, pages.Count()).
func (s *State) Clamp(pages Pages) {
	if s.CurrentPage >= pages.Count() {
		s.CurrentPage = pages.Count() - 1
	}
	if s.CurrentPage < 0 {
		s.CurrentPage = 0
	}
}

type Outcome int

const (
	// OutcomeAdvanced means the cursor moved to the next page.
	OutcomeAdvanced Outcome = iota + 1
	// OutcomeSubmit means the current page is the last one and the caller
	// should submit the answers.
	OutcomeSubmit
)

// Next applies the page gate and moves forward. When required questions on
// the current page are unanswered the cursor stays put and a
// *models.ValidationError lists them.
func Next(s *State, pages Pages, values map[string]models.Value) (Outcome, error) {
	s.Clamp(pages)
	if warnings := pages.Missing(s.CurrentPage, values); len(warnings) > 0 {
		return 0, models.NewValidationError(warnings...)
	}
	if s.CurrentPage == pages.Count()-1 {
		return OutcomeSubmit, nil
	}
	s.CurrentPage++
	return OutcomeAdvanced, nil
}

// Previous moves back one page. It reports whether the cursor moved.
func Previous(s *State, pages Pages) bool {
	s.Clamp(pages)
	if s.CurrentPage == 0 {
		return false
	}
	s.CurrentPage--
	return true
}

// QuestionView is what a client needs to render one question.
type QuestionView struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Image    []byte   `json:"image,omitempty"`
	ImageURL *string  `json:"image_url,omitempty"`
	Required bool     `json:"required"`
}

// PageView is the render contract for the current page.
type PageView struct {
	PageNumber       int            `json:"page_number"`
	PageCount        int            `json:"page_count"`
	Questions        []QuestionView `json:"questions"`
	CanGoNext        bool           `json:"can_go_next"`
	CanGoPrevious    bool           `json:"can_go_previous"`
	IsLastPage       bool           `json:"is_last_page"`
	ValidationErrors []string       `json:"validation_errors"`
}

// View renders the page under the cursor with any pending warnings.
func View(s State, pages Pages, warnings []string) PageView {
	s.Clamp(pages)
	page := pages[s.CurrentPage]

	questions := make([]QuestionView, 0, len(page.Questions))
	for _, q := range page.Questions {
		questions = append(questions, NewQuestionView(q))
	}
	if warnings == nil {
		warnings = []string{}
	}

	last := s.CurrentPage == pages.Count()-1
	return PageView{
		PageNumber:       page.Number,
		PageCount:        pages.Count(),
		Questions:        questions,
		CanGoNext:        !last,
		CanGoPrevious:    s.CurrentPage > 0,
		IsLastPage:       last,
		ValidationErrors: warnings,
	}
}

func NewQuestionView(q models.Question) QuestionView {
	return QuestionView{
		ID:       q.QuestionID,
		Text:     q.QuestionText,
		Type:     q.QuestionType,
		Options:  q.Options,
		Image:    q.Image,
		ImageURL: q.ImageURL,
		Required: q.Required(),
	}
}
