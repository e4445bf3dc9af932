// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/codec"
	"github.com/danielhkuo/quickly-survey/db"
	"github.com/google/uuid"
)

// SetupTestDB creates a fresh SQLite database in a temp dir with the full
// schema. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	url := filepath.Join(t.TempDir(), "survey_test.db")

	if err := db.Migrate(ctx, db.TypeSQLite, url); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	conn, err := db.Open(ctx, db.TypeSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       "survey_test.db",
		DatabaseType:      db.TypeSQLite,
		JWTSecret:         "test-jwt-secret",
		TokenTTL:          time.Hour,
		SessionBackend:    "memory",
		SessionTTL:        time.Hour,
		NullEndDatePolicy: "closed",
		MaxImageWidth:     64,
		LoginRate:         100,
	}
}

// Test accounts known to NewTestAuthenticator
const (
	TestUser          = "alice"
	TestUserPassword  = "alice-password"
	TestAdmin         = "admin"
	TestAdminPassword = "admin-password"
)

// NewTestAuthenticator returns an authenticator with one respondent and one
// admin account, signing tokens with the test config secret.
func NewTestAuthenticator(t *testing.T) *auth.Authenticator {
	t.Helper()

	userHash, err := auth.HashPassword(TestUserPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	adminHash, err := auth.HashPassword(TestAdminPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	raw := "users:\n" +
		"  " + TestUser + ":\n    password_hash: " + userHash + "\n" +
		"  " + TestAdmin + ":\n    password_hash: " + adminHash + "\n    admin: true\n"
	creds, err := auth.ParseCredentials([]byte(raw))
	if err != nil {
		t.Fatalf("Failed to parse test credentials: %v", err)
	}

	cfg := GetTestConfig()
	return auth.NewAuthenticator(creds, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL))
}

// LoginToken logs in and returns the bearer token
func LoginToken(t *testing.T, a *auth.Authenticator, username, password string) string {
	t.Helper()

	res, err := a.Login(username, password)
	if err != nil {
		t.Fatalf("Failed to log in as %s: %v", username, err)
	}
	return res.Token
}

// CreateTestSurvey inserts a survey and returns its ID. A nil endDate
// leaves the survey unpublished.
func CreateTestSurvey(t *testing.T, conn *sql.DB, title string, endDate *string) string {
	t.Helper()

	surveyID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO surveys (survey_id, title, description, created_at, end_date)
		VALUES ($1, $2, 'A test survey', $3, $4)
	`, surveyID, title, time.Now().UTC(), endDate)
	if err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}

	return surveyID
}

// AddTestQuestion adds a question and returns its ID. options may be nil
// for text questions.
func AddTestQuestion(t *testing.T, conn *sql.DB, surveyID, text, qtype string, options []string, page, order int) string {
	t.Helper()

	var encoded *string
	if options != nil {
		enc, err := codec.EncodeList(options)
		if err != nil {
			t.Fatalf("Failed to encode options: %v", err)
		}
		encoded = &enc
	}

	questionID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO questions (question_id, survey_id, question_text, question_type, options, order_number, page_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, questionID, surveyID, text, qtype, encoded, order, page)
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	return questionID
}

// AddTestAnswer stores a raw answer row without going through the store
func AddTestAnswer(t *testing.T, conn *sql.DB, username, surveyID, questionID string, answerText *string, isDraft bool) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO answers (answer_id, username, survey_id, question_id, answer_text, submitted_at, is_draft)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), username, surveyID, questionID, answerText, time.Now().UTC(), isDraft)
	if err != nil {
		t.Fatalf("Failed to create test answer: %v", err)
	}
}

// CountRows runs a COUNT(*) query
func CountRows(t *testing.T, conn *sql.DB, query string, args ...interface{}) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

// StrPtr returns a pointer to s
func StrPtr(s string) *string {
	return &s
}

// FutureDate returns a date-only end date days from now
func FutureDate(days int) *string {
	return StrPtr(time.Now().AddDate(0, 0, days).Format("2006-01-02"))
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// BearerHeader builds the Authorization header for a token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
