// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the domain, request and response types of the API
and the error taxonomy shared by every layer.

# Domain Types

  - Survey: title, description, creation time, optional end_date text
  - Question: text, type (text, single, multi), options, page and order
  - Answer: one stored row per (username, survey_id, question_id)
  - Value: a raw answer as sent by a client (null, text or list)

# Errors

  - ValidationError: invalid input, nothing was written
  - NotFoundError: unknown survey or question
  - PersistenceError: store failure, the transaction was rolled back
  - MalformedDataError: a stored value that was read back as opaque text
  - ErrSurveyClosed: an answer change outside the answering window

# Inputs

SurveyInput and QuestionInput carry writable fields and validate
themselves with go-playground/validator.
*/
package models
