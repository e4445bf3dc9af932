// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Survey API.

# Handlers

  - AuthHandler: POST /auth/login
  - RespondentHandler: dashboard, history and the answering flow
  - AdminHandler: survey and question authoring, results, integrity report

Handlers read path parameters with chi.URLParam and the caller's identity
with auth.FromContext. Errors from the store and responder packages go
through middleware.WriteError, which maps them to status codes:

	*models.ValidationError  → 400 with the list of problems
	*models.NotFoundError    → 404
	models.ErrSurveyClosed   → 409
	anything else            → 500

A refused page step answers 422 with the page and its warnings.
*/
package handlers
