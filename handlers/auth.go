// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/middleware"
	"github.com/danielhkuo/quickly-survey/models"
)

type AuthHandler struct {
	auth *auth.Authenticator
}

func NewAuthHandler(a *auth.Authenticator) *AuthHandler {
	return &AuthHandler{auth: a}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", middleware.GetClientIP(r))
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("user logged in", "username", req.Username, "admin", result.Identity.IsAdmin)

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     result.Token,
		Username:  result.Identity.Username,
		IsAdmin:   result.Identity.IsAdmin,
		ExpiresAt: result.ExpiresAt,
	})
}
