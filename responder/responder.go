// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package responder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/quickly-survey/models"
	"github.com/danielhkuo/quickly-survey/pagination"
	"github.com/danielhkuo/quickly-survey/session"
	"github.com/danielhkuo/quickly-survey/visibility"
	"github.com/dustin/go-humanize"
)

// Store is the persistence the respondent workflow needs.
type Store interface {
	GetSurvey(ctx context.Context, surveyID string) (models.Survey, error)
	ListQuestions(ctx context.Context, surveyID string) ([]models.Question, error)
	LoadAnswers(ctx context.Context, username, surveyID string) ([]models.AnsweredQuestion, error)
	Presence(ctx context.Context, username, surveyID string) (models.Presence, error)
	SaveAnswers(ctx context.Context, username, surveyID string, values map[string]models.Value, isDraft bool) (int, error)
	SurveyPresences(ctx context.Context, username string) ([]models.SurveyPresence, error)
	History(ctx context.Context, username string) ([]models.HistoryEntry, error)
}

// Respondent identifies the user and the login session acting.
type Respondent struct {
	Username  string
	SessionID string
}

type Service struct {
	store    Store
	sessions session.Store
	policy   visibility.Policy
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, sessions session.Store, policy visibility.Policy, opts ...Option) *Service {
	s := &Service{store: store, sessions: sessions, policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SurveyView is what a respondent sees when opening a survey. Editable
// surveys carry the current page; finished expired ones carry every answer.
type SurveyView struct {
	Survey    models.Survey             `json:"survey"`
	Status    visibility.Status         `json:"status"`
	ReadOnly  bool                      `json:"read_only"`
	ClosesAt  *time.Time                `json:"closes_at,omitempty"`
	Page      *pagination.PageView      `json:"page,omitempty"`
	Values    map[string]models.Value   `json:"values,omitempty"`
	Answers   []models.AnsweredQuestion `json:"answers,omitempty"`
	DataError string                    `json:"data_error,omitempty"`
}

// NavResult is the outcome of a navigation or submit command.
type NavResult struct {
	Page      *pagination.PageView `json:"page,omitempty"`
	Refused   bool                 `json:"refused"`
	Submitted bool                 `json:"submitted"`
	Saved     int                  `json:"saved"`
}

// classify loads a survey and the respondent's status on it.
func (s *Service) classify(ctx context.Context, r Respondent, surveyID string) (models.Survey, visibility.Classification, error) {
	survey, err := s.store.GetSurvey(ctx, surveyID)
	if err != nil {
		return models.Survey{}, visibility.Classification{}, err
	}
	presence, err := s.store.Presence(ctx, r.Username, surveyID)
	if err != nil {
		return models.Survey{}, visibility.Classification{}, err
	}

	c := s.policy.Classify(survey, presence, s.now())
	if c.Window.Err != nil {
		slog.Warn("survey end date is malformed", "survey_id", surveyID, "end_date", c.Window.Err.Value)
	}
	return survey, c, nil
}

// editable is classify plus the edit-window check.
func (s *Service) editable(ctx context.Context, r Respondent, surveyID string) (models.Survey, visibility.Classification, error) {
	survey, c, err := s.classify(ctx, r, surveyID)
	if err != nil {
		return survey, c, err
	}
	if !c.Editable() {
		return survey, c, models.ErrSurveyClosed
	}
	return survey, c, nil
}

// state loads the session's navigation state pointed at surveyID.
func (s *Service) state(ctx context.Context, r Respondent, surveyID string, pages pagination.Pages) (pagination.State, error) {
	st, err := s.sessions.Get(ctx, r.SessionID)
	if err != nil {
		return pagination.State{}, err
	}
	if st.Enter(surveyID) {
		slog.Debug("navigation reset", "username", r.Username, "survey_id", surveyID)
	}
	st.Clamp(pages)
	return st, nil
}

// Open shows a survey at the session's current page. Unanswered closed
// surveys cannot be opened; submitted expired ones open read-only.
func (s *Service) Open(ctx context.Context, r Respondent, surveyID string) (SurveyView, error) {
	survey, c, err := s.classify(ctx, r, surveyID)
	if err != nil {
		return SurveyView{}, err
	}

	view := SurveyView{Survey: survey, Status: c.Status, ReadOnly: c.ReadOnly(), ClosesAt: c.Window.Closes}
	if c.Window.Err != nil {
		view.DataError = c.Window.Err.Error()
	}
	if c.Status == visibility.StatusUnansweredClosed {
		return view, models.ErrSurveyClosed
	}

	answers, err := s.store.LoadAnswers(ctx, r.Username, surveyID)
	if err != nil {
		return SurveyView{}, err
	}
	if view.ReadOnly {
		view.Answers = answers
		return view, nil
	}

	questions := make([]models.Question, 0, len(answers))
	view.Values = make(map[string]models.Value, len(answers))
	for _, a := range answers {
		questions = append(questions, a.Question)
		if !a.Value.Empty() {
			view.Values[a.QuestionID] = a.Value
		}
	}

	pages := pagination.Build(questions)
	st, err := s.state(ctx, r, surveyID, pages)
	if err != nil {
		return SurveyView{}, err
	}
	if err := s.sessions.Put(ctx, r.SessionID, st); err != nil {
		return SurveyView{}, err
	}

	page := pagination.View(st, pages, nil)
	view.Page = &page
	return view, nil
}

// Next validates the current page against values and moves forward. On the
// last page it submits instead. A refused step is not an error: the result
// carries the page with its warnings.
func (s *Service) Next(ctx context.Context, r Respondent, surveyID string, values map[string]models.Value) (NavResult, error) {
	if _, _, err := s.editable(ctx, r, surveyID); err != nil {
		return NavResult{}, err
	}
	questions, err := s.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return NavResult{}, err
	}
	pages := pagination.Build(questions)

	st, err := s.state(ctx, r, surveyID, pages)
	if err != nil {
		return NavResult{}, err
	}

	outcome, err := pagination.Next(&st, pages, values)
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		page := pagination.View(st, pages, ve.Problems)
		return NavResult{Page: &page, Refused: true}, s.sessions.Put(ctx, r.SessionID, st)
	}
	if err != nil {
		return NavResult{}, err
	}

	if outcome == pagination.OutcomeSubmit {
		return s.submit(ctx, r, surveyID, pages, st, values)
	}

	if err := s.sessions.Put(ctx, r.SessionID, st); err != nil {
		return NavResult{}, err
	}
	page := pagination.View(st, pages, nil)
	return NavResult{Page: &page}, nil
}

// Previous moves back one page.
func (s *Service) Previous(ctx context.Context, r Respondent, surveyID string) (NavResult, error) {
	if _, _, err := s.editable(ctx, r, surveyID); err != nil {
		return NavResult{}, err
	}
	questions, err := s.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return NavResult{}, err
	}
	pages := pagination.Build(questions)

	st, err := s.state(ctx, r, surveyID, pages)
	if err != nil {
		return NavResult{}, err
	}
	pagination.Previous(&st, pages)
	if err := s.sessions.Put(ctx, r.SessionID, st); err != nil {
		return NavResult{}, err
	}

	page := pagination.View(st, pages, nil)
	return NavResult{Page: &page}, nil
}

// SaveDraft stores values as a draft without any page gate.
func (s *Service) SaveDraft(ctx context.Context, r Respondent, surveyID string, values map[string]models.Value) (int, error) {
	if _, _, err := s.editable(ctx, r, surveyID); err != nil {
		return 0, err
	}
	n, err := s.store.SaveAnswers(ctx, r.Username, surveyID, values, true)
	if err != nil {
		return 0, err
	}
	slog.Info("draft saved", "username", r.Username, "survey_id", surveyID, "rows", n)
	return n, nil
}

// Submit checks every page for unanswered required questions and stores
// the final answer set. Missing answers are a *models.ValidationError.
func (s *Service) Submit(ctx context.Context, r Respondent, surveyID string, values map[string]models.Value) (NavResult, error) {
	if _, _, err := s.editable(ctx, r, surveyID); err != nil {
		return NavResult{}, err
	}
	questions, err := s.store.ListQuestions(ctx, surveyID)
	if err != nil {
		return NavResult{}, err
	}
	pages := pagination.Build(questions)

	if warnings := pages.MissingAll(values); len(warnings) > 0 {
		return NavResult{}, models.NewValidationError(warnings...)
	}

	st, err := s.state(ctx, r, surveyID, pages)
	if err != nil {
		return NavResult{}, err
	}
	return s.submit(ctx, r, surveyID, pages, st, values)
}

// submit stores final answers. If an earlier page has unanswered required
// questions the cursor moves there and the step is refused.
func (s *Service) submit(ctx context.Context, r Respondent, surveyID string, pages pagination.Pages, st pagination.State, values map[string]models.Value) (NavResult, error) {
	for i := range pages {
		if warnings := pages.Missing(i, values); len(warnings) > 0 {
			st.CurrentPage = i
			page := pagination.View(st, pages, warnings)
			return NavResult{Page: &page, Refused: true}, s.sessions.Put(ctx, r.SessionID, st)
		}
	}

	n, err := s.store.SaveAnswers(ctx, r.Username, surveyID, values, false)
	if err != nil {
		return NavResult{}, err
	}
	if err := s.sessions.Delete(ctx, r.SessionID); err != nil {
		slog.Warn("failed to clear navigation state", "username", r.Username, "error", err)
	}

	slog.Info("answers submitted", "username", r.Username, "survey_id", surveyID, "rows", n)
	return NavResult{Submitted: true, Saved: n}, nil
}

// Answers returns the respondent's current answer set.
func (s *Service) Answers(ctx context.Context, r Respondent, surveyID string) ([]models.AnsweredQuestion, error) {
	return s.store.LoadAnswers(ctx, r.Username, surveyID)
}

// DashboardEntry is one survey on the respondent's dashboard.
type DashboardEntry struct {
	Survey    models.Survey     `json:"survey"`
	Status    visibility.Status `json:"status"`
	ClosesAt  *time.Time        `json:"closes_at,omitempty"`
	ClosesIn  string            `json:"closes_in,omitempty"`
	DataError string            `json:"data_error,omitempty"`
}

// Dashboard groups every survey by the respondent's status on it.
type Dashboard struct {
	Unanswered []DashboardEntry `json:"unanswered"`
	Drafts     []DashboardEntry `json:"drafts"`
	Submitted  []DashboardEntry `json:"submitted"`
	Expired    []DashboardEntry `json:"expired"`
	Closed     []DashboardEntry `json:"closed"`
}

func (s *Service) Dashboard(ctx context.Context, username string) (Dashboard, error) {
	presences, err := s.store.SurveyPresences(ctx, username)
	if err != nil {
		return Dashboard{}, err
	}

	now := s.now()
	d := Dashboard{
		Unanswered: []DashboardEntry{},
		Drafts:     []DashboardEntry{},
		Submitted:  []DashboardEntry{},
		Expired:    []DashboardEntry{},
		Closed:     []DashboardEntry{},
	}
	for _, sp := range presences {
		c := s.policy.Classify(sp.Survey, sp.Presence, now)
		entry := DashboardEntry{Survey: sp.Survey, Status: c.Status, ClosesAt: c.Window.Closes}
		if c.Window.Closes != nil {
			entry.ClosesIn = humanize.RelTime(*c.Window.Closes, now, "ago", "from now")
		}
		if c.Window.Err != nil {
			entry.DataError = c.Window.Err.Error()
		}

		switch c.Status {
		case visibility.StatusUnansweredOpen:
			d.Unanswered = append(d.Unanswered, entry)
		case visibility.StatusDraft:
			d.Drafts = append(d.Drafts, entry)
		case visibility.StatusSubmittedOpen:
			d.Submitted = append(d.Submitted, entry)
		case visibility.StatusSubmittedExpired:
			d.Expired = append(d.Expired, entry)
		default:
			d.Closed = append(d.Closed, entry)
		}
	}
	return d, nil
}

func (s *Service) History(ctx context.Context, username string) ([]models.HistoryEntry, error) {
	return s.store.History(ctx, username)
}
