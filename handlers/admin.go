// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/middleware"
	"github.com/danielhkuo/quickly-survey/models"
	"github.com/danielhkuo/quickly-survey/store"
)

// AdminHandler serves survey authoring. Every route runs behind
// middleware.RequireUser and middleware.RequireAdmin.
type AdminHandler struct {
	store *store.Store
}

func NewAdminHandler(s *store.Store) *AdminHandler {
	return &AdminHandler{store: s}
}

func adminName(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.Username
}

// ListSurveys handles GET /admin/surveys
func (h *AdminHandler) ListSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.store.ListSurveys(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, surveys)
}

// CreateSurvey handles POST /admin/surveys
func (h *AdminHandler) CreateSurvey(w http.ResponseWriter, r *http.Request) {
	var in models.SurveyInput
	if err := middleware.ParseJSONBody(r, &in); err != nil {
		middleware.BodyError(w, err)
		return
	}

	survey, err := h.store.CreateSurvey(r.Context(), in)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("survey created", "survey_id", survey.SurveyID, "admin", adminName(r))
	middleware.JSONResponse(w, http.StatusCreated, survey)
}

// GetSurvey handles GET /admin/surveys/{id}
func (h *AdminHandler) GetSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "id")

	survey, err := h.store.GetSurvey(r.Context(), surveyID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	questions, err := h.store.ListQuestions(r.Context(), surveyID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SurveyDetailResponse{
		Survey:    survey,
		Questions: questions,
	})
}

// UpdateSurvey handles PUT /admin/surveys/{id}
func (h *AdminHandler) UpdateSurvey(w http.ResponseWriter, r *http.Request) {
	var in models.SurveyInput
	if err := middleware.ParseJSONBody(r, &in); err != nil {
		middleware.BodyError(w, err)
		return
	}

	survey, err := h.store.UpdateSurvey(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, survey)
}

// DeleteSurvey handles DELETE /admin/surveys/{id}
func (h *AdminHandler) DeleteSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "id")
	if err := h.store.DeleteSurvey(r.Context(), surveyID); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("survey deleted", "survey_id", surveyID, "admin", adminName(r))
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateSurvey handles POST /admin/surveys/{id}/duplicate
func (h *AdminHandler) DuplicateSurvey(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "id")

	copied, err := h.store.DuplicateSurvey(r.Context(), surveyID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("survey duplicated", "survey_id", surveyID, "copy_id", copied.SurveyID, "admin", adminName(r))
	middleware.JSONResponse(w, http.StatusCreated, copied)
}

// PublishSurvey handles POST /admin/surveys/{id}/publish
func (h *AdminHandler) PublishSurvey(w http.ResponseWriter, r *http.Request) {
	var req models.PublishSurveyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.BodyError(w, err)
		return
	}

	survey, err := h.store.PublishSurvey(r.Context(), chi.URLParam(r, "id"), req.EndDate)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("survey published", "survey_id", survey.SurveyID, "end_date", req.EndDate, "admin", adminName(r))
	middleware.JSONResponse(w, http.StatusOK, survey)
}

// Results handles GET /admin/surveys/{id}/results
func (h *AdminHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, results)
}

// NextPosition handles GET /admin/surveys/{id}/next-position?page=N. Without
// a page it targets the last page, or page 1 for an empty survey.
func (h *AdminHandler) NextPosition(w http.ResponseWriter, r *http.Request) {
	surveyID := chi.URLParam(r, "id")
	ctx := r.Context()

	if _, err := h.store.GetSurvey(ctx, surveyID); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	maxPage, err := h.store.MaxPageNumber(ctx, surveyID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	page := max(maxPage, 1)
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
	}

	maxOrder, err := h.store.MaxOrderNumber(ctx, surveyID, page)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.NextPositionResponse{
		MaxPageNumber:   maxPage,
		PageNumber:      page,
		NextOrderNumber: maxOrder + 1,
	})
}

// ListQuestions handles GET /admin/surveys/{id}/questions
func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.store.ListQuestions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, questions)
}

// CreateQuestion handles POST /admin/surveys/{id}/questions
func (h *AdminHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in models.QuestionInput
	if err := middleware.ParseJSONBody(r, &in); err != nil {
		middleware.BodyError(w, err)
		return
	}

	q, err := h.store.CreateQuestion(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("question created", "question_id", q.QuestionID, "survey_id", q.SurveyID, "page", q.PageNumber)
	middleware.JSONResponse(w, http.StatusCreated, q)
}

// GetQuestion handles GET /admin/questions/{id}
func (h *AdminHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.GetQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, q)
}

// UpdateQuestion handles PUT /admin/questions/{id}
func (h *AdminHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var in models.QuestionInput
	if err := middleware.ParseJSONBody(r, &in); err != nil {
		middleware.BodyError(w, err)
		return
	}

	q, err := h.store.UpdateQuestion(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, q)
}

// DeleteQuestion handles DELETE /admin/questions/{id}
func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "id")
	if err := h.store.DeleteQuestion(r.Context(), questionID); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	slog.Info("question deleted", "question_id", questionID, "admin", adminName(r))
	w.WriteHeader(http.StatusNoContent)
}

// Integrity handles GET /admin/integrity
func (h *AdminHandler) Integrity(w http.ResponseWriter, r *http.Request) {
	issues, err := h.store.IntegrityReport(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, issues)
}
