// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

WithLogging logs one line per request with the chi request ID, status,
bytes and duration.

# Access

	r.Use(middleware.RequireUser(authenticator))
	r.Use(middleware.RequireAdmin)

RequireUser answers 401 without a valid bearer token. RequireAdmin answers
403 for users without the admin flag.

# Rate Limiting

	limiter := middleware.NewRateLimiter(10) // per minute per client IP
	r.With(limiter.Limit).Post("/auth/login", h.Login)

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.WriteError(w, r, err)

	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
