// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/handlers"
	"github.com/danielhkuo/quickly-survey/media"
	"github.com/danielhkuo/quickly-survey/middleware"
	"github.com/danielhkuo/quickly-survey/responder"
	"github.com/danielhkuo/quickly-survey/session"
	"github.com/danielhkuo/quickly-survey/store"
	"github.com/danielhkuo/quickly-survey/visibility"
)

// Services are the dependencies built in main that the routes share.
type Services struct {
	Auth     *auth.Authenticator
	Sessions session.Store
	Policy   visibility.Policy
}

func NewRouter(db *sql.DB, cfg cliparse.Config, svc Services) *chi.Mux {
	st := store.New(db, store.WithImageNormalizer(media.NewNormalizer(cfg.MaxImageWidth)))
	respond := responder.New(st, svc.Sessions, svc.Policy)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	respondentHandler := handlers.NewRespondentHandler(respond)
	adminHandler := handlers.NewAdminHandler(st)

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRate)
	requireUser := middleware.RequireUser(svc.Auth)

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.Recoverer, middleware.CORS, middleware.WithLogging)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.With(loginLimiter.Limit).Post("/auth/login", authHandler.Login)

	// Respondent operations
	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/me/surveys", respondentHandler.Dashboard)
		r.Get("/me/history", respondentHandler.History)

		r.Route("/surveys/{id}", func(r chi.Router) {
			r.Get("/", respondentHandler.Open)
			r.Post("/next", respondentHandler.Next)
			r.Post("/previous", respondentHandler.Previous)
			r.Put("/draft", respondentHandler.SaveDraft)
			r.Post("/submit", respondentHandler.Submit)
			r.Get("/answers", respondentHandler.Answers)
		})
	})

	// Survey authoring
	r.Route("/admin", func(r chi.Router) {
		r.Use(requireUser, middleware.RequireAdmin)

		r.Get("/surveys", adminHandler.ListSurveys)
		r.Post("/surveys", adminHandler.CreateSurvey)
		r.Route("/surveys/{id}", func(r chi.Router) {
			r.Get("/", adminHandler.GetSurvey)
			r.Put("/", adminHandler.UpdateSurvey)
			r.Delete("/", adminHandler.DeleteSurvey)
			r.Post("/duplicate", adminHandler.DuplicateSurvey)
			r.Post("/publish", adminHandler.PublishSurvey)
			r.Get("/results", adminHandler.Results)
			r.Get("/next-position", adminHandler.NextPosition)
			r.Get("/questions", adminHandler.ListQuestions)
			r.Post("/questions", adminHandler.CreateQuestion)
		})
		r.Get("/questions/{id}", adminHandler.GetQuestion)
		r.Put("/questions/{id}", adminHandler.UpdateQuestion)
		r.Delete("/questions/{id}", adminHandler.DeleteQuestion)
		r.Get("/integrity", adminHandler.Integrity)
	})

	// Root endpoint
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-survey API v1"))
	})

	return r
}
