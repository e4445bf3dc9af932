// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/quickly-survey/auth"
)

// withParam sets a chi URL parameter on req
func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// asUser attaches an identity the way middleware.RequireUser does
func asUser(req *http.Request, username string, admin bool) *http.Request {
	id := auth.Identity{Username: username, IsAdmin: admin, SessionID: "session-" + username}
	return req.WithContext(auth.WithIdentity(req.Context(), id))
}
