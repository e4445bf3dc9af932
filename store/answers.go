// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-survey/codec"
	"github.com/danielhkuo/quickly-survey/models"
	"github.com/google/uuid"
)

// SaveAnswers writes one answer row per question of the survey in a single
// transaction. Values for questions outside the survey are ignored and
// missing values are stored as NULL. It returns the number of rows written.
func (s *Store) SaveAnswers(ctx context.Context, username, surveyID string, values map[string]models.Value, isDraft bool) (int, error) {
	if strings.TrimSpace(username) == "" {
		return 0, models.NewValidationError("username is required")
	}

	written := 0
	err := s.withTx(ctx, "save answers", func(tx *sql.Tx) error {
		if err := surveyExists(ctx, tx, surveyID); err != nil {
			return err
		}
		questions, err := listQuestions(ctx, tx, surveyID)
		if err != nil {
			return err
		}

		// Encode everything before the first write
		texts := make([]sql.NullString, len(questions))
		var problems []string
		for i, q := range questions {
			text, err := encodeAnswer(q, values[q.QuestionID])
			if err != nil {
				problems = append(problems, err.Error())
				continue
			}
			texts[i] = text
		}
		if len(problems) > 0 {
			return models.NewValidationError(problems...)
		}

		now := s.now().UTC()
		for i, q := range questions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO answers (answer_id, username, survey_id, question_id, answer_text, submitted_at, is_draft)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (username, survey_id, question_id) DO UPDATE SET
					answer_text = excluded.answer_text,
					submitted_at = excluded.submitted_at,
					is_draft = excluded.is_draft
			`, uuid.NewString(), username, surveyID, q.QuestionID, texts[i], now, isDraft)
			if err != nil {
				return persistErr("upsert answer", err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// SubmitAnswers stores a final answer set. It is the only path that marks
// rows as not draft.
func (s *Store) SubmitAnswers(ctx context.Context, username, surveyID string, values map[string]models.Value) (int, error) {
	return s.SaveAnswers(ctx, username, surveyID, values, false)
}

// encodeAnswer turns a raw value into answer_text. Multi-select answers are
// stored as a serialized list, everything else as plain text. Choice answers
// must name one of the question's options.
func encodeAnswer(q models.Question, v models.Value) (sql.NullString, error) {
	if v.Empty() {
		return sql.NullString{}, nil
	}

	if q.QuestionType == models.TypeMulti {
		items := v.Items
		if v.Kind == models.ValueText {
			items = []string{v.Text}
		}
		var kept []string
		for _, item := range items {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if !slices.Contains(q.Options, item) {
				return sql.NullString{}, fmt.Errorf("%q has no option %q", q.QuestionText, item)
			}
			kept = append(kept, item)
		}
		if len(kept) == 0 {
			return sql.NullString{}, nil
		}
		enc, err := codec.EncodeList(kept)
		if err != nil {
			return sql.NullString{}, err
		}
		return sql.NullString{String: enc, Valid: true}, nil
	}

	text := v.Text
	if v.Kind == models.ValueList {
		if len(v.Items) != 1 {
			return sql.NullString{}, fmt.Errorf("%q accepts a single answer", q.QuestionText)
		}
		text = v.Items[0]
	}
	if q.QuestionType == models.TypeSingle {
		text = strings.TrimSpace(text)
		if !slices.Contains(q.Options, text) {
			return sql.NullString{}, fmt.Errorf("%q has no option %q", q.QuestionText, text)
		}
	}
	return sql.NullString{String: text, Valid: true}, nil
}

// decodeAnswer reverses encodeAnswer. A multi-select answer that is not a
// valid list is returned as opaque text along with a data error.
func decodeAnswer(q models.Question, text sql.NullString) (models.Value, *models.MalformedDataError) {
	if !text.Valid {
		return models.Value{}, nil
	}
	if q.QuestionType != models.TypeMulti {
		return models.TextValue(text.String), nil
	}

	items, err := codec.DecodeList(text.String)
	if err != nil {
		return models.TextValue(text.String), &models.MalformedDataError{
			Field: "answer_text",
			RowID: q.QuestionID,
			Value: text.String,
			Err:   err,
		}
	}
	return models.ListValue(items...), nil
}

// LoadAnswers returns every question of the survey joined with the user's
// current answer, draft or final, in page and display order.
func (s *Store) LoadAnswers(ctx context.Context, username, surveyID string) ([]models.AnsweredQuestion, error) {
	if err := surveyExists(ctx, s.db, surveyID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT q.question_id, q.survey_id, q.question_text, q.question_type, q.options,
			q.order_number, q.page_number, q.image, q.image_url,
			a.answer_text, a.submitted_at, a.is_draft
		FROM questions q
		LEFT JOIN answers a
			ON a.question_id = q.question_id AND a.survey_id = q.survey_id AND a.username = $1
		WHERE q.survey_id = $2
		ORDER BY q.page_number, q.order_number, q.question_id
	`, username, surveyID)
	if err != nil {
		return nil, persistErr("load answers", err)
	}
	defer rows.Close()

	answered := []models.AnsweredQuestion{}
	for rows.Next() {
		var text sql.NullString
		var submittedAt sql.NullTime
		var isDraft sql.NullBool

		q, _, err := scanQuestion(rows, &text, &submittedAt, &isDraft)
		if err != nil {
			return nil, persistErr("scan answer", err)
		}

		value, bad := decodeAnswer(q, text)
		if bad != nil {
			slog.Warn("malformed answer", "username", username, "question_id", q.QuestionID, "error", bad.Err)
		}

		aq := models.AnsweredQuestion{Question: q, Value: value}
		if submittedAt.Valid {
			at := submittedAt.Time
			aq.Answered = true
			aq.SubmittedAt = &at
			aq.IsDraft = isDraft.Bool
		}
		answered = append(answered, aq)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("load answers", err)
	}
	return answered, nil
}

// Presence reports which kinds of rows a user has on a survey.
func (s *Store) Presence(ctx context.Context, username, surveyID string) (models.Presence, error) {
	var p models.Presence
	rows, err := s.db.QueryContext(ctx, `
		SELECT is_draft, COUNT(*) FROM answers
		WHERE username = $1 AND survey_id = $2
		GROUP BY is_draft
	`, username, surveyID)
	if err != nil {
		return p, persistErr("answer presence", err)
	}
	defer rows.Close()

	for rows.Next() {
		var isDraft bool
		var n int
		if err := rows.Scan(&isDraft, &n); err != nil {
			return p, persistErr("answer presence", err)
		}
		if n == 0 {
			continue
		}
		if isDraft {
			p.HasDraft = true
		} else {
			p.HasFinal = true
		}
	}
	if err := rows.Err(); err != nil {
		return p, persistErr("answer presence", err)
	}
	return p, nil
}

// SurveyPresences lists every survey with the user's answer presence,
// newest survey first.
func (s *Store) SurveyPresences(ctx context.Context, username string) ([]models.SurveyPresence, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.survey_id, s.title, s.description, s.created_at, s.end_date,
			COALESCE(c.final_count, 0), COALESCE(c.draft_count, 0)
		FROM surveys s
		LEFT JOIN (
			SELECT survey_id,
				SUM(CASE WHEN is_draft = $2 THEN 1 ELSE 0 END) AS final_count,
				SUM(CASE WHEN is_draft = $3 THEN 1 ELSE 0 END) AS draft_count
			FROM answers
			WHERE username = $1
			GROUP BY survey_id
		) c ON c.survey_id = s.survey_id
		ORDER BY s.created_at DESC, s.survey_id
	`, username, false, true)
	if err != nil {
		return nil, persistErr("list survey presence", err)
	}
	defer rows.Close()

	out := []models.SurveyPresence{}
	for rows.Next() {
		var sp models.SurveyPresence
		var description, endDate sql.NullString
		var finals, drafts int
		err := rows.Scan(&sp.Survey.SurveyID, &sp.Survey.Title, &description, &sp.Survey.CreatedAt, &endDate, &finals, &drafts)
		if err != nil {
			return nil, persistErr("scan survey presence", err)
		}
		sp.Survey.Description = stringPtr(description)
		sp.Survey.EndDate = stringPtr(endDate)
		sp.Presence = models.Presence{HasFinal: finals > 0, HasDraft: drafts > 0}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list survey presence", err)
	}
	return out, nil
}

// History lists the surveys a user has submitted, with the latest
// submission time, most recent first.
func (s *Store) History(ctx context.Context, username string) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.survey_id, s.title, a.submitted_at
		FROM answers a
		JOIN surveys s ON s.survey_id = a.survey_id
		WHERE a.username = $1 AND a.is_draft = $2
	`, username, false)
	if err != nil {
		return nil, persistErr("answer history", err)
	}
	defer rows.Close()

	latest := map[string]*models.HistoryEntry{}
	for rows.Next() {
		var surveyID, title string
		var at time.Time
		if err := rows.Scan(&surveyID, &title, &at); err != nil {
			return nil, persistErr("scan history", err)
		}
		entry, ok := latest[surveyID]
		if !ok {
			latest[surveyID] = &models.HistoryEntry{SurveyID: surveyID, Title: title, LastSubmittedAt: at}
			continue
		}
		if at.After(entry.LastSubmittedAt) {
			entry.LastSubmittedAt = at
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("answer history", err)
	}

	history := make([]models.HistoryEntry, 0, len(latest))
	for _, entry := range latest {
		history = append(history, *entry)
	}
	sort.Slice(history, func(i, j int) bool {
		if !history[i].LastSubmittedAt.Equal(history[j].LastSubmittedAt) {
			return history[i].LastSubmittedAt.After(history[j].LastSubmittedAt)
		}
		return history[i].SurveyID < history[j].SurveyID
	})
	return history, nil
}

// Results lists the final answers of a survey grouped by respondent,
// ordered by username and then question position. Drafts are excluded.
func (s *Store) Results(ctx context.Context, surveyID string) ([]models.Submission, error) {
	if err := surveyExists(ctx, s.db, surveyID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT q.question_id, q.survey_id, q.question_text, q.question_type, q.options,
			q.order_number, q.page_number, q.image, q.image_url,
			a.username, a.answer_text, a.submitted_at
		FROM answers a
		JOIN questions q ON q.question_id = a.question_id
		WHERE a.survey_id = $1 AND a.is_draft = $2
		ORDER BY a.username, q.page_number, q.order_number, q.question_id
	`, surveyID, false)
	if err != nil {
		return nil, persistErr("list results", err)
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		var username string
		var text sql.NullString
		var at time.Time

		q, _, err := scanQuestion(rows, &username, &text, &at)
		if err != nil {
			return nil, persistErr("scan result", err)
		}
		value, _ := decodeAnswer(q, text)

		if n := len(submissions); n == 0 || submissions[n-1].Username != username {
			submissions = append(submissions, models.Submission{Username: username})
		}
		sub := &submissions[len(submissions)-1]
		if at.After(sub.SubmittedAt) {
			sub.SubmittedAt = at
		}
		answeredAt := at
		sub.Answers = append(sub.Answers, models.AnsweredQuestion{
			Question:    q,
			Value:       value,
			Answered:    true,
			SubmittedAt: &answeredAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list results", err)
	}
	return submissions, nil
}
