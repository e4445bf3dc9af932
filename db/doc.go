// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens database connections and applies the schema.

Two dialects are supported, PostgreSQL through lib/pq and SQLite through
modernc.org/sqlite. Queries elsewhere use $N placeholders, which both
accept.

# Migrations

The schema is a set of golang-migrate migrations embedded in the binary,
one directory per dialect:

	if err := db.Migrate(ctx, db.TypeSQLite, "survey.db"); err != nil {
		return err
	}
	conn, err := db.Open(ctx, db.TypeSQLite, "survey.db")

# Tables

  - surveys: survey_id, title, description, created_at, end_date (text)
  - questions: question_id, survey_id, question_text, question_type,
    options (serialized list), order_number, page_number, image, image_url
  - answers: answer_id, username, survey_id, question_id, answer_text,
    submitted_at, is_draft; unique on (username, survey_id, question_id)

Questions and answers are removed with their survey. SQLite connections
enable foreign keys and take the write lock when a transaction begins.
*/
package db
