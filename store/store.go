// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/danielhkuo/quickly-survey/models"
)

// ImageNormalizer prepares an uploaded question image for storage.
type ImageNormalizer interface {
	Normalize(img []byte) ([]byte, error)
}

// Store persists surveys, questions and answers in a relational database.
// Every method is one unit of work; transactions never outlive a call.
type Store struct {
	db     *sql.DB
	now    func() time.Time
	images ImageNormalizer
}

type Option func(*Store)

// WithClock overrides the time source used for created_at and submitted_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithImageNormalizer runs uploaded question images through n.
func WithImageNormalizer(n ImageNormalizer) Option {
	return func(s *Store) { s.images = n }
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// withTx runs fn in a transaction. fn returns already classified errors;
// begin and commit failures become persistence errors.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistErr(op, err)
	}
	return nil
}

func persistErr(op string, err error) error {
	return &models.PersistenceError{Op: op, Err: err}
}

func surveyNotFound(id string) error {
	return &models.NotFoundError{Kind: "survey", ID: id}
}

func questionNotFound(id string) error {
	return &models.NotFoundError{Kind: "question", ID: id}
}

func surveyExists(ctx context.Context, q querier, surveyID string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM surveys WHERE survey_id = $1", surveyID).Scan(&one)
	if err == sql.ErrNoRows {
		return surveyNotFound(surveyID)
	}
	if err != nil {
		return persistErr("check survey", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// blobOrNil stores an empty image as NULL.
func blobOrNil(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
