// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/middleware"
	"github.com/danielhkuo/quickly-survey/models"
	"github.com/danielhkuo/quickly-survey/responder"
)

// RespondentHandler serves the answering side. Every route runs behind
// middleware.RequireUser.
type RespondentHandler struct {
	svc *responder.Service
}

func NewRespondentHandler(svc *responder.Service) *RespondentHandler {
	return &RespondentHandler{svc: svc}
}

func respondent(r *http.Request) responder.Respondent {
	id, _ := auth.FromContext(r.Context())
	return responder.Respondent{Username: id.Username, SessionID: id.SessionID}
}

// parseAnswers reads an AnswersRequest body. A missing answers object is
// treated as no answers.
func parseAnswers(w http.ResponseWriter, r *http.Request) (map[string]models.Value, bool) {
	var req models.AnswersRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return nil, false
	}
	if req.Answers == nil {
		req.Answers = map[string]models.Value{}
	}
	return req.Answers, true
}

// Dashboard handles GET /me/surveys
func (h *RespondentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context(), respondent(r).Username)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, d)
}

// History handles GET /me/history
func (h *RespondentHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.svc.History(r.Context(), respondent(r).Username)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, history)
}

// Open handles GET /surveys/{id}
func (h *RespondentHandler) Open(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Open(r.Context(), respondent(r), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// Next handles POST /surveys/{id}/next. A refused step answers 422 with
// the page and its warnings.
func (h *RespondentHandler) Next(w http.ResponseWriter, r *http.Request) {
	values, ok := parseAnswers(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Next(r.Context(), respondent(r), chi.URLParam(r, "id"), values)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if res.Refused {
		middleware.JSONResponse(w, http.StatusUnprocessableEntity, res)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// Previous handles POST /surveys/{id}/previous
func (h *RespondentHandler) Previous(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Previous(r.Context(), respondent(r), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// SaveDraft handles PUT /surveys/{id}/draft
func (h *RespondentHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	values, ok := parseAnswers(w, r)
	if !ok {
		return
	}

	n, err := h.svc.SaveDraft(r.Context(), respondent(r), chi.URLParam(r, "id"), values)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SaveAnswersResponse{
		Saved:   n,
		IsDraft: true,
		Message: "Draft saved",
	})
}

// Submit handles POST /surveys/{id}/submit
func (h *RespondentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	values, ok := parseAnswers(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Submit(r.Context(), respondent(r), chi.URLParam(r, "id"), values)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	if res.Refused {
		middleware.JSONResponse(w, http.StatusUnprocessableEntity, res)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SaveAnswersResponse{
		Saved:   res.Saved,
		IsDraft: false,
		Message: "Answers submitted",
	})
}

// Answers handles GET /surveys/{id}/answers
func (h *RespondentHandler) Answers(w http.ResponseWriter, r *http.Request) {
	answers, err := h.svc.Answers(r.Context(), respondent(r), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, answers)
}
