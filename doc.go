// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Survey API server.

Quickly Survey lets admins author paginated surveys and lets signed-in
users answer them, saving drafts along the way and submitting a final
answer set before the survey's end date.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=survey.db JWT_SECRET=... CREDENTIALS_FILE=users.yaml go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -credentials users.yaml

A .env file in the working directory is loaded first if present.

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - JWT_SECRET (-jwt-secret): Secret used to sign login tokens
  - CREDENTIALS_FILE (-credentials): YAML file of users and bcrypt hashes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SESSION_BACKEND (-sessions): memory or redis (default: memory)
  - NULL_END_DATE_POLICY (-null-end-date): closed or open (default: closed)

See package cliparse for the full list.

# Password Hashes

Entries for the credentials file are produced with:

	go run . hash-password -password 's3cret'

# Architecture

  - handlers, router, middleware: JSON HTTP API on chi
  - responder: respondent workflow (open, next, previous, draft, submit)
  - visibility, pagination: answering window and page navigation rules
  - store: survey, question and answer persistence
  - db: connections and embedded migrations
  - session: per-login navigation state (memory or Redis)
  - auth: credentials file and JWT bearer tokens
  - media: question image normalisation
  - logging, cliparse: ambient setup

See package documentation for each component.
*/
package main
