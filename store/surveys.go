// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/danielhkuo/quickly-survey/models"
	"github.com/google/uuid"
)

// CopySuffix is appended to the title of a duplicated survey.
const CopySuffix = " (copy)"

const surveyColumns = "survey_id, title, description, created_at, end_date"

func scanSurvey(row scanner) (models.Survey, error) {
	var s models.Survey
	var description, endDate sql.NullString
	if err := row.Scan(&s.SurveyID, &s.Title, &description, &s.CreatedAt, &endDate); err != nil {
		return models.Survey{}, err
	}
	s.Description = stringPtr(description)
	s.EndDate = stringPtr(endDate)
	return s, nil
}

// CreateSurvey validates in and stores a new survey.
func (s *Store) CreateSurvey(ctx context.Context, in models.SurveyInput) (models.Survey, error) {
	if err := in.Validate(); err != nil {
		return models.Survey{}, err
	}

	survey := models.Survey{
		SurveyID:    uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   s.now().UTC(),
		EndDate:     in.EndDate,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO surveys (survey_id, title, description, created_at, end_date)
		VALUES ($1, $2, $3, $4, $5)
	`, survey.SurveyID, survey.Title, nullString(survey.Description), survey.CreatedAt, nullString(survey.EndDate))
	if err != nil {
		return models.Survey{}, persistErr("insert survey", err)
	}
	return survey, nil
}

func (s *Store) GetSurvey(ctx context.Context, surveyID string) (models.Survey, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+surveyColumns+" FROM surveys WHERE survey_id = $1", surveyID)
	survey, err := scanSurvey(row)
	if err == sql.ErrNoRows {
		return models.Survey{}, surveyNotFound(surveyID)
	}
	if err != nil {
		return models.Survey{}, persistErr("get survey", err)
	}
	return survey, nil
}

// ListSurveys returns all surveys, newest first.
func (s *Store) ListSurveys(ctx context.Context) ([]models.Survey, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+surveyColumns+" FROM surveys ORDER BY created_at DESC, survey_id")
	if err != nil {
		return nil, persistErr("list surveys", err)
	}
	defer rows.Close()

	surveys := []models.Survey{}
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, persistErr("scan survey", err)
		}
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list surveys", err)
	}
	return surveys, nil
}

// UpdateSurvey replaces the writable fields of a survey.
func (s *Store) UpdateSurvey(ctx context.Context, surveyID string, in models.SurveyInput) (models.Survey, error) {
	if err := in.Validate(); err != nil {
		return models.Survey{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE surveys SET title = $1, description = $2, end_date = $3
		WHERE survey_id = $4
	`, in.Title, nullString(in.Description), nullString(in.EndDate), surveyID)
	if err != nil {
		return models.Survey{}, persistErr("update survey", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Survey{}, surveyNotFound(surveyID)
	}
	return s.GetSurvey(ctx, surveyID)
}

// PublishSurvey sets the end date that opens a survey to respondents.
func (s *Store) PublishSurvey(ctx context.Context, surveyID, endDate string) (models.Survey, error) {
	endDate = strings.TrimSpace(endDate)
	if endDate == "" {
		return models.Survey{}, models.NewValidationError("end_date is required")
	}
	if _, _, err := models.ParseEndDate(endDate, time.UTC); err != nil {
		return models.Survey{}, models.NewValidationError("end_date must be a date (YYYY-MM-DD) or a date and time")
	}

	res, err := s.db.ExecContext(ctx, "UPDATE surveys SET end_date = $1 WHERE survey_id = $2", endDate, surveyID)
	if err != nil {
		return models.Survey{}, persistErr("publish survey", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Survey{}, surveyNotFound(surveyID)
	}
	return s.GetSurvey(ctx, surveyID)
}

// DeleteSurvey removes a survey with all its questions and answers.
func (s *Store) DeleteSurvey(ctx context.Context, surveyID string) error {
	return s.withTx(ctx, "delete survey", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM answers WHERE survey_id = $1", surveyID); err != nil {
			return persistErr("delete answers", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM questions WHERE survey_id = $1", surveyID); err != nil {
			return persistErr("delete questions", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM surveys WHERE survey_id = $1", surveyID)
		if err != nil {
			return persistErr("delete survey", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return surveyNotFound(surveyID)
		}
		return nil
	})
}

// DuplicateSurvey copies a survey and its questions under new ids. Answers
// are not copied.
func (s *Store) DuplicateSurvey(ctx context.Context, surveyID string) (models.Survey, error) {
	var copied models.Survey

	err := s.withTx(ctx, "duplicate survey", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+surveyColumns+" FROM surveys WHERE survey_id = $1", surveyID)
		original, err := scanSurvey(row)
		if err == sql.ErrNoRows {
			return surveyNotFound(surveyID)
		}
		if err != nil {
			return persistErr("get survey", err)
		}

		copied = models.Survey{
			SurveyID:    uuid.NewString(),
			Title:       original.Title + CopySuffix,
			Description: original.Description,
			CreatedAt:   s.now().UTC(),
			EndDate:     original.EndDate,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO surveys (survey_id, title, description, created_at, end_date)
			VALUES ($1, $2, $3, $4, $5)
		`, copied.SurveyID, copied.Title, nullString(copied.Description), copied.CreatedAt, nullString(copied.EndDate))
		if err != nil {
			return persistErr("insert survey copy", err)
		}

		// Copy raw column values so malformed options survive unchanged
		rows, err := tx.QueryContext(ctx, `
			SELECT question_text, question_type, options, order_number, page_number, image, image_url
			FROM questions WHERE survey_id = $1
			ORDER BY page_number, order_number, question_id
		`, surveyID)
		if err != nil {
			return persistErr("list questions", err)
		}

		type rawQuestion struct {
			text, qtype       string
			options, imageURL sql.NullString
			order, page       int
			image             []byte
		}
		var questions []rawQuestion
		for rows.Next() {
			var q rawQuestion
			if err := rows.Scan(&q.text, &q.qtype, &q.options, &q.order, &q.page, &q.image, &q.imageURL); err != nil {
				rows.Close()
				return persistErr("scan question", err)
			}
			questions = append(questions, q)
		}
		if err := rows.Close(); err != nil {
			return persistErr("list questions", err)
		}
		if err := rows.Err(); err != nil {
			return persistErr("list questions", err)
		}

		for _, q := range questions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO questions (question_id, survey_id, question_text, question_type, options, order_number, page_number, image, image_url)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, uuid.NewString(), copied.SurveyID, q.text, q.qtype, q.options, q.order, q.page, blobOrNil(q.image), q.imageURL)
			if err != nil {
				return persistErr("insert question copy", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Survey{}, err
	}
	return copied, nil
}
