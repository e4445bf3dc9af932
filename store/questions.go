// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/quickly-survey/codec"
	"github.com/danielhkuo/quickly-survey/models"
	"github.com/google/uuid"
)

const questionColumns = "question_id, survey_id, question_text, question_type, options, order_number, page_number, image, image_url"

// scanQuestion reads a question row. Options that fail to decode are kept
// as a single opaque option and reported through the returned data error.
func scanQuestion(row scanner, extra ...interface{}) (models.Question, *models.MalformedDataError, error) {
	var q models.Question
	var options, imageURL sql.NullString

	dest := []interface{}{&q.QuestionID, &q.SurveyID, &q.QuestionText, &q.QuestionType,
		&options, &q.OrderNumber, &q.PageNumber, &q.Image, &imageURL}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.Question{}, nil, err
	}
	q.ImageURL = stringPtr(imageURL)

	if !options.Valid || options.String == "" {
		return q, nil, nil
	}
	items, err := codec.DecodeList(options.String)
	if err != nil {
		q.Options = []string{options.String}
		bad := &models.MalformedDataError{Field: "options", RowID: q.QuestionID, Value: options.String, Err: err}
		slog.Warn("malformed question options", "question_id", q.QuestionID, "survey_id", q.SurveyID, "error", err)
		return q, bad, nil
	}
	q.Options = items
	return q, nil, nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (models.Question, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions WHERE question_id = $1", questionID)
	q, _, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return models.Question{}, questionNotFound(questionID)
	}
	if err != nil {
		return models.Question{}, persistErr("get question", err)
	}
	return q, nil
}

// ListQuestions returns a survey's questions in page and display order.
func (s *Store) ListQuestions(ctx context.Context, surveyID string) ([]models.Question, error) {
	if err := surveyExists(ctx, s.db, surveyID); err != nil {
		return nil, err
	}
	return listQuestions(ctx, s.db, surveyID)
}

func listQuestions(ctx context.Context, q querier, surveyID string) ([]models.Question, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+questionColumns+` FROM questions
		WHERE survey_id = $1
		ORDER BY page_number, order_number, question_id`, surveyID)
	if err != nil {
		return nil, persistErr("list questions", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		question, _, err := scanQuestion(rows)
		if err != nil {
			return nil, persistErr("scan question", err)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list questions", err)
	}
	return questions, nil
}

// MaxOrderNumber returns the highest order_number on a page, or 0.
func (s *Store) MaxOrderNumber(ctx context.Context, surveyID string, pageNumber int) (int, error) {
	n, err := maxOrderNumber(ctx, s.db, surveyID, pageNumber)
	if err != nil {
		return 0, persistErr("max order number", err)
	}
	return n, nil
}

// MaxPageNumber returns the highest page_number of a survey, or 0.
func (s *Store) MaxPageNumber(ctx context.Context, surveyID string) (int, error) {
	n, err := maxPageNumber(ctx, s.db, surveyID)
	if err != nil {
		return 0, persistErr("max page number", err)
	}
	return n, nil
}

func maxOrderNumber(ctx context.Context, q querier, surveyID string, pageNumber int) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(order_number), 0) FROM questions
		WHERE survey_id = $1 AND page_number = $2
	`, surveyID, pageNumber).Scan(&n)
	return n, err
}

func maxPageNumber(ctx context.Context, q querier, surveyID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(page_number), 0) FROM questions WHERE survey_id = $1
	`, surveyID).Scan(&n)
	return n, err
}

// prepareQuestion validates in and returns the encoded options and the
// normalised image.
func (s *Store) prepareQuestion(in *models.QuestionInput) (sql.NullString, []byte, error) {
	if err := in.Validate(); err != nil {
		return sql.NullString{}, nil, err
	}

	var options sql.NullString
	if len(in.Options) > 0 {
		enc, err := codec.EncodeList(in.Options)
		if err != nil {
			return sql.NullString{}, nil, models.NewValidationError("options could not be encoded")
		}
		options = sql.NullString{String: enc, Valid: true}
	}

	image := in.Image
	if len(image) > 0 && s.images != nil {
		normalized, err := s.images.Normalize(image)
		if err != nil {
			return sql.NullString{}, nil, models.NewValidationError("image: " + err.Error())
		}
		image = normalized
	}
	return options, image, nil
}

// checkPage keeps explicit page numbers contiguous: a question may go on an
// existing page or open the one right after the last.
func checkPage(page, maxPage int) error {
	if page > maxPage+1 {
		return models.NewValidationError(fmt.Sprintf("page_number must be at most %d", maxPage+1))
	}
	return nil
}

// CreateQuestion adds a question to a survey. A zero page number appends to
// the last page and a zero order number appends to the end of the page.
func (s *Store) CreateQuestion(ctx context.Context, surveyID string, in models.QuestionInput) (models.Question, error) {
	options, image, err := s.prepareQuestion(&in)
	if err != nil {
		return models.Question{}, err
	}

	questionID := uuid.NewString()
	err = s.withTx(ctx, "create question", func(tx *sql.Tx) error {
		if err := surveyExists(ctx, tx, surveyID); err != nil {
			return err
		}

		maxPage, err := maxPageNumber(ctx, tx, surveyID)
		if err != nil {
			return persistErr("max page number", err)
		}
		if err := checkPage(in.PageNumber, maxPage); err != nil {
			return err
		}
		page := in.PageNumber
		if page == 0 {
			page = max(maxPage, 1)
		}
		order := in.OrderNumber
		if order == 0 {
			maxOrder, err := maxOrderNumber(ctx, tx, surveyID, page)
			if err != nil {
				return persistErr("max order number", err)
			}
			order = maxOrder + 1
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (question_id, survey_id, question_text, question_type, options, order_number, page_number, image, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, questionID, surveyID, in.QuestionText, in.QuestionType, options, order, page, blobOrNil(image), nullString(in.ImageURL))
		if err != nil {
			return persistErr("insert question", err)
		}
		return nil
	})
	if err != nil {
		return models.Question{}, err
	}
	return s.GetQuestion(ctx, questionID)
}

// UpdateQuestion replaces a question's fields. A nil image keeps the stored
// one unless ClearImage is set. Moving a question to another page appends it
// there and closes the gap it leaves behind.
func (s *Store) UpdateQuestion(ctx context.Context, questionID string, in models.QuestionInput) (models.Question, error) {
	options, image, err := s.prepareQuestion(&in)
	if err != nil {
		return models.Question{}, err
	}

	err = s.withTx(ctx, "update question", func(tx *sql.Tx) error {
		var surveyID string
		var oldPage, oldOrder int
		err := tx.QueryRowContext(ctx, `
			SELECT survey_id, page_number, order_number FROM questions WHERE question_id = $1
		`, questionID).Scan(&surveyID, &oldPage, &oldOrder)
		if err == sql.ErrNoRows {
			return questionNotFound(questionID)
		}
		if err != nil {
			return persistErr("get question", err)
		}

		maxPage, err := maxPageNumber(ctx, tx, surveyID)
		if err != nil {
			return persistErr("max page number", err)
		}
		if err := checkPage(in.PageNumber, maxPage); err != nil {
			return err
		}
		page := in.PageNumber
		if page == 0 {
			page = oldPage
		}
		order := in.OrderNumber
		if order == 0 {
			if page == oldPage {
				order = oldOrder
			} else {
				maxOrder, err := maxOrderNumber(ctx, tx, surveyID, page)
				if err != nil {
					return persistErr("max order number", err)
				}
				order = maxOrder + 1
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE questions
			SET question_text = $1, question_type = $2, options = $3, order_number = $4, page_number = $5, image_url = $6
			WHERE question_id = $7
		`, in.QuestionText, in.QuestionType, options, order, page, nullString(in.ImageURL), questionID)
		if err != nil {
			return persistErr("update question", err)
		}

		if len(image) > 0 || in.ClearImage {
			if _, err := tx.ExecContext(ctx, "UPDATE questions SET image = $1 WHERE question_id = $2", blobOrNil(image), questionID); err != nil {
				return persistErr("update question image", err)
			}
		}

		if page != oldPage {
			if err := renumberPage(ctx, tx, surveyID, oldPage); err != nil {
				return err
			}
			return compactPages(ctx, tx, surveyID)
		}
		return nil
	})
	if err != nil {
		return models.Question{}, err
	}
	return s.GetQuestion(ctx, questionID)
}

// DeleteQuestion removes a question and its answers, then renumbers the
// remaining questions of its page and closes empty pages.
func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	return s.withTx(ctx, "delete question", func(tx *sql.Tx) error {
		var surveyID string
		var page int
		err := tx.QueryRowContext(ctx, `
			SELECT survey_id, page_number FROM questions WHERE question_id = $1
		`, questionID).Scan(&surveyID, &page)
		if err == sql.ErrNoRows {
			return questionNotFound(questionID)
		}
		if err != nil {
			return persistErr("get question", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM answers WHERE question_id = $1", questionID); err != nil {
			return persistErr("delete answers", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM questions WHERE question_id = $1", questionID); err != nil {
			return persistErr("delete question", err)
		}

		if err := renumberPage(ctx, tx, surveyID, page); err != nil {
			return err
		}
		return compactPages(ctx, tx, surveyID)
	})
}

// renumberPage rewrites order numbers on a page as 1..n, keeping the
// current relative order.
func renumberPage(ctx context.Context, tx *sql.Tx, surveyID string, page int) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT question_id, order_number FROM questions
		WHERE survey_id = $1 AND page_number = $2
		ORDER BY order_number, question_id
	`, surveyID, page)
	if err != nil {
		return persistErr("renumber page", err)
	}

	type position struct {
		id    string
		order int
	}
	var positions []position
	for rows.Next() {
		var p position
		if err := rows.Scan(&p.id, &p.order); err != nil {
			rows.Close()
			return persistErr("renumber page", err)
		}
		positions = append(positions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return persistErr("renumber page", err)
	}

	for i, p := range positions {
		if p.order == i+1 {
			continue
		}
		if _, err := tx.ExecContext(ctx, "UPDATE questions SET order_number = $1 WHERE question_id = $2", i+1, p.id); err != nil {
			return persistErr("renumber page", err)
		}
	}
	return nil
}

// compactPages renumbers the pages that still hold questions as 1..n.
func compactPages(ctx context.Context, tx *sql.Tx, surveyID string) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT page_number FROM questions WHERE survey_id = $1 ORDER BY page_number
	`, surveyID)
	if err != nil {
		return persistErr("compact pages", err)
	}

	var pages []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return persistErr("compact pages", err)
		}
		pages = append(pages, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return persistErr("compact pages", err)
	}

	for i, p := range pages {
		if p == i+1 {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE questions SET page_number = $1 WHERE survey_id = $2 AND page_number = $3
		`, i+1, surveyID, p)
		if err != nil {
			return persistErr("compact pages", err)
		}
	}
	return nil
}
