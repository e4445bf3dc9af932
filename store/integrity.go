// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/danielhkuo/quickly-survey/codec"
	"github.com/danielhkuo/quickly-survey/models"
)

// IntegrityReport scans stored end dates, options and multi-select answers
// and lists every value that cannot be decoded.
func (s *Store) IntegrityReport(ctx context.Context) ([]models.IntegrityIssue, error) {
	issues := []models.IntegrityIssue{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT survey_id, end_date FROM surveys WHERE end_date IS NOT NULL ORDER BY survey_id
	`)
	if err != nil {
		return nil, persistErr("scan end dates", err)
	}
	for rows.Next() {
		var id, endDate string
		if err := rows.Scan(&id, &endDate); err != nil {
			rows.Close()
			return nil, persistErr("scan end dates", err)
		}
		if _, _, err := models.ParseEndDate(endDate, time.UTC); err != nil {
			issues = append(issues, models.IntegrityIssue{
				Table: "surveys", RowID: id, SurveyID: id, Field: "end_date", Value: endDate, Problem: err.Error(),
			})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, persistErr("scan end dates", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT question_id, survey_id, options FROM questions
		WHERE options IS NOT NULL ORDER BY survey_id, question_id
	`)
	if err != nil {
		return nil, persistErr("scan options", err)
	}
	for rows.Next() {
		var id, surveyID, options string
		if err := rows.Scan(&id, &surveyID, &options); err != nil {
			rows.Close()
			return nil, persistErr("scan options", err)
		}
		if _, err := codec.DecodeList(options); err != nil && options != "" {
			issues = append(issues, models.IntegrityIssue{
				Table: "questions", RowID: id, SurveyID: surveyID, Field: "options", Value: options, Problem: err.Error(),
			})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, persistErr("scan options", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT a.answer_id, a.survey_id, a.answer_text
		FROM answers a
		JOIN questions q ON q.question_id = a.question_id
		WHERE q.question_type = $1 AND a.answer_text IS NOT NULL
		ORDER BY a.survey_id, a.answer_id
	`, models.TypeMulti)
	if err != nil {
		return nil, persistErr("scan answers", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, surveyID string
		var text sql.NullString
		if err := rows.Scan(&id, &surveyID, &text); err != nil {
			return nil, persistErr("scan answers", err)
		}
		if _, err := codec.DecodeList(text.String); err != nil {
			issues = append(issues, models.IntegrityIssue{
				Table: "answers", RowID: id, SurveyID: surveyID, Field: "answer_text", Value: text.String, Problem: err.Error(),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("scan answers", err)
	}
	return issues, nil
}
