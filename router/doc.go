// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Survey API.

	mux := router.NewRouter(db, cfg, router.Services{...})

# Endpoints

Public:

	GET  /health
	POST /auth/login   (rate limited per client IP)

Respondent (bearer token):

	GET  /me/surveys              - Dashboard grouped by status
	GET  /me/history              - Submitted surveys
	GET  /surveys/{id}            - Open at the current page
	POST /surveys/{id}/next       - Gated next, submits on the last page
	POST /surveys/{id}/previous   - Previous page
	PUT  /surveys/{id}/draft      - Save draft
	POST /surveys/{id}/submit     - Submit
	GET  /surveys/{id}/answers    - Stored answers

Admin (bearer token with the admin flag):

	GET|POST        /admin/surveys
	GET|PUT|DELETE  /admin/surveys/{id}
	POST            /admin/surveys/{id}/duplicate
	POST            /admin/surveys/{id}/publish
	GET             /admin/surveys/{id}/results
	GET             /admin/surveys/{id}/next-position?page=N
	GET|POST        /admin/surveys/{id}/questions
	GET|PUT|DELETE  /admin/questions/{id}
	GET             /admin/integrity
*/
package router
