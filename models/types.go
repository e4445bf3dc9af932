package models

import "time"

// Question type constants
const (
	TypeText   = "text"
	TypeSingle = "single"
	TypeMulti  = "multi"
)

// Domain types

type Survey struct {
	SurveyID    string    `json:"survey_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	EndDate     *string   `json:"end_date,omitempty"`
}

type Question struct {
	QuestionID   string   `json:"question_id"`
	SurveyID     string   `json:"survey_id"`
	QuestionText string   `json:"question_text"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options,omitempty"`
	OrderNumber  int      `json:"order_number"`
	PageNumber   int      `json:"page_number"`
	Image        []byte   `json:"image,omitempty"`
	ImageURL     *string  `json:"image_url,omitempty"`
}

// IsChoice reports whether the question is answered by picking options.
func (q Question) IsChoice() bool {
	return q.QuestionType == TypeSingle || q.QuestionType == TypeMulti
}

// Required reports whether an answer must be given before leaving the page.
// Only choice questions are required; text questions never block navigation.
func (q Question) Required() bool {
	return q.IsChoice()
}

type Answer struct {
	AnswerID    string    `json:"answer_id"`
	Username    string    `json:"username"`
	SurveyID    string    `json:"survey_id"`
	QuestionID  string    `json:"question_id"`
	AnswerText  *string   `json:"answer_text,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	IsDraft     bool      `json:"is_draft"`
}

// AnsweredQuestion is a question joined with one user's stored answer.
type AnsweredQuestion struct {
	Question
	Value       Value      `json:"value"`
	Answered    bool       `json:"answered"`
	IsDraft     bool       `json:"is_draft"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// Presence summarises which kinds of answer rows a user has for a survey.
type Presence struct {
	HasFinal bool
	HasDraft bool
}

// SurveyPresence pairs a survey with one user's presence on it.
type SurveyPresence struct {
	Survey   Survey
	Presence Presence
}

// Submission is one respondent's final answer set, used by the results listing.
type Submission struct {
	Username    string             `json:"username"`
	SubmittedAt time.Time          `json:"submitted_at"`
	Answers     []AnsweredQuestion `json:"answers"`
}

type HistoryEntry struct {
	SurveyID        string    `json:"survey_id"`
	Title           string    `json:"title"`
	LastSubmittedAt time.Time `json:"last_submitted_at"`
}

// IntegrityIssue describes a stored value that could not be decoded.
type IntegrityIssue struct {
	Table    string `json:"table"`
	RowID    string `json:"row_id"`
	SurveyID string `json:"survey_id"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Problem  string `json:"problem"`
}

// Request types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PublishSurveyRequest struct {
	EndDate string `json:"end_date"`
}

// question_id -> value
type AnswersRequest struct {
	Answers map[string]Value `json:"answers"`
}

// Response types

type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SurveyDetailResponse struct {
	Survey    Survey     `json:"survey"`
	Questions []Question `json:"questions"`
}

type NextPositionResponse struct {
	MaxPageNumber   int `json:"max_page_number"`
	PageNumber      int `json:"page_number"`
	NextOrderNumber int `json:"next_order_number"`
}

type SaveAnswersResponse struct {
	Saved   int    `json:"saved"`
	IsDraft bool   `json:"is_draft"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error    string   `json:"error"`
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}
