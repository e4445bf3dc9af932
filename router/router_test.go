// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/cliparse"
	"github.com/danielhkuo/quickly-survey/models"
	"github.com/danielhkuo/quickly-survey/responder"
	"github.com/danielhkuo/quickly-survey/session"
	"github.com/danielhkuo/quickly-survey/testutil"
	"github.com/danielhkuo/quickly-survey/visibility"
)

type testServer struct {
	mux  *chi.Mux
	conn *sql.DB
	auth *auth.Authenticator
}

func newTestServer(t *testing.T, cfg cliparse.Config) *testServer {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	a := testutil.NewTestAuthenticator(t)
	mux := NewRouter(conn, cfg, Services{
		Auth:     a,
		Sessions: session.NewMemoryStore(time.Hour),
		Policy:   visibility.DefaultPolicy(),
	})
	return &testServer{mux: mux, conn: conn, auth: a}
}

func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var headers map[string]string
	if token != "" {
		headers = testutil.BearerHeader(token)
	}
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, testutil.GetTestConfig())

	w := s.do("GET", "/health", nil, "")

	testutil.AssertStatus(t, w, http.StatusOK)
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS headers on every response")
	}
}

func TestRootEndpoint(t *testing.T) {
	s := newTestServer(t, testutil.GetTestConfig())

	w := s.do("GET", "/", nil, "")

	testutil.AssertStatus(t, w, http.StatusOK)
	if w.Body.String() != "quickly-survey API v1" {
		t.Errorf("Unexpected body '%s'", w.Body.String())
	}
}

func TestAccessControl(t *testing.T) {
	s := newTestServer(t, testutil.GetTestConfig())
	userToken := testutil.LoginToken(t, s.auth, testutil.TestUser, testutil.TestUserPassword)
	adminToken := testutil.LoginToken(t, s.auth, testutil.TestAdmin, testutil.TestAdminPassword)

	testCases := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{"dashboard without token", "GET", "/me/surveys", "", http.StatusUnauthorized},
		{"dashboard with garbage token", "GET", "/me/surveys", "not-a-token", http.StatusUnauthorized},
		{"dashboard as user", "GET", "/me/surveys", userToken, http.StatusOK},
		{"admin list without token", "GET", "/admin/surveys", "", http.StatusUnauthorized},
		{"admin list as user", "GET", "/admin/surveys", userToken, http.StatusForbidden},
		{"admin list as admin", "GET", "/admin/surveys", adminToken, http.StatusOK},
		{"integrity as admin", "GET", "/admin/integrity", adminToken, http.StatusOK},
		{"unknown survey", "GET", "/surveys/missing", userToken, http.StatusNotFound},
		{"unknown admin survey", "GET", "/admin/surveys/missing", adminToken, http.StatusNotFound},
		{"unknown question", "GET", "/admin/questions/missing", adminToken, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(tc.method, tc.path, nil, tc.token)
			testutil.AssertStatus(t, w, tc.expectedStatus)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, testutil.GetTestConfig())

	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/health"},
		{"GET", "/auth/login"},
		{"DELETE", "/me/surveys"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := s.do(tc.method, tc.path, nil, "")
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.LoginRate = 2
	s := newTestServer(t, cfg)

	body := models.LoginRequest{Username: testutil.TestUser, Password: "wrong"}
	for i := 0; i < 2; i++ {
		testutil.AssertStatus(t, s.do("POST", "/auth/login", body, ""), http.StatusUnauthorized)
	}
	testutil.AssertStatus(t, s.do("POST", "/auth/login", body, ""), http.StatusTooManyRequests)
}

// TestSurveyLifecycle covers authoring through answering to results:
// 1. Admin creates a survey with two pages
// 2. Admin publishes it
// 3. User logs in, opens it and walks the pages
// 4. User submits from the last page
// 5. Admin reads the results
func TestSurveyLifecycle(t *testing.T) {
	s := newTestServer(t, testutil.GetTestConfig())
	adminToken := testutil.LoginToken(t, s.auth, testutil.TestAdmin, testutil.TestAdminPassword)

	// Step 1
	w := s.do("POST", "/admin/surveys", map[string]interface{}{"title": "Offsite"}, adminToken)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var survey models.Survey
	testutil.AssertJSON(t, w, &survey)

	w = s.do("POST", "/admin/surveys/"+survey.SurveyID+"/questions", map[string]interface{}{
		"question_text": "Where?",
		"question_type": "single",
		"options":       []string{"Lake", "Mountains"},
	}, adminToken)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var where models.Question
	testutil.AssertJSON(t, w, &where)

	w = s.do("POST", "/admin/surveys/"+survey.SurveyID+"/questions", map[string]interface{}{
		"question_text": "Anything else?",
		"question_type": "text",
		"page_number":   2,
	}, adminToken)
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = s.do("GET", "/admin/surveys/"+survey.SurveyID+"/next-position", nil, adminToken)
	testutil.AssertStatus(t, w, http.StatusOK)
	var pos models.NextPositionResponse
	testutil.AssertJSON(t, w, &pos)
	if pos.MaxPageNumber != 2 || pos.NextOrderNumber != 2 {
		t.Errorf("Step 1 - unexpected next position: %+v", pos)
	}

	// Unpublished surveys are closed to respondents
	login := s.do("POST", "/auth/login", models.LoginRequest{Username: testutil.TestUser, Password: testutil.TestUserPassword}, "")
	testutil.AssertStatus(t, login, http.StatusOK)
	var loginResp models.LoginResponse
	testutil.AssertJSON(t, login, &loginResp)
	userToken := loginResp.Token

	testutil.AssertStatus(t, s.do("GET", "/surveys/"+survey.SurveyID, nil, userToken), http.StatusConflict)

	// Step 2
	endDate := time.Now().AddDate(0, 0, 7).Format(models.DateLayout)
	w = s.do("POST", "/admin/surveys/"+survey.SurveyID+"/publish", models.PublishSurveyRequest{EndDate: endDate}, adminToken)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Step 3
	w = s.do("GET", "/surveys/"+survey.SurveyID, nil, userToken)
	testutil.AssertStatus(t, w, http.StatusOK)
	var view responder.SurveyView
	testutil.AssertJSON(t, w, &view)
	if view.Page == nil || view.Page.PageCount != 2 {
		t.Fatalf("Step 3 - unexpected view: %+v", view)
	}

	values := map[string]interface{}{where.QuestionID: "Lake"}
	w = s.do("POST", "/surveys/"+survey.SurveyID+"/next", map[string]interface{}{"answers": values}, userToken)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = s.do("PUT", "/surveys/"+survey.SurveyID+"/draft", map[string]interface{}{"answers": values}, userToken)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = s.do("GET", "/me/surveys", nil, userToken)
	testutil.AssertStatus(t, w, http.StatusOK)
	var dash responder.Dashboard
	testutil.AssertJSON(t, w, &dash)
	if len(dash.Drafts) != 1 {
		t.Errorf("Step 3 - expected one draft on the dashboard, got %+v", dash)
	}

	// Step 4
	w = s.do("POST", "/surveys/"+survey.SurveyID+"/next", map[string]interface{}{"answers": values}, userToken)
	testutil.AssertStatus(t, w, http.StatusOK)
	var nav responder.NavResult
	testutil.AssertJSON(t, w, &nav)
	if !nav.Submitted {
		t.Fatalf("Step 4 - expected the last page to submit, got %+v", nav)
	}

	// Step 5
	w = s.do("GET", "/admin/surveys/"+survey.SurveyID+"/results", nil, adminToken)
	testutil.AssertStatus(t, w, http.StatusOK)
	var results []models.Submission
	testutil.AssertJSON(t, w, &results)
	if len(results) != 1 || results[0].Username != testutil.TestUser {
		t.Fatalf("Step 5 - unexpected results: %+v", results)
	}
	if results[0].Answers[0].Value.Text != "Lake" {
		t.Errorf("Step 5 - expected Lake, got %+v", results[0].Answers[0].Value)
	}
}

func TestNavigationIsPerLogin(t *testing.T) {
	s := newTestServer(t, testutil.GetTestConfig())
	surveyID := testutil.CreateTestSurvey(t, s.conn, "Pages", testutil.FutureDate(3))
	testutil.AddTestQuestion(t, s.conn, surveyID, "One", models.TypeText, nil, 1, 1)
	testutil.AddTestQuestion(t, s.conn, surveyID, "Two", models.TypeText, nil, 2, 1)

	first := testutil.LoginToken(t, s.auth, testutil.TestUser, testutil.TestUserPassword)
	second := testutil.LoginToken(t, s.auth, testutil.TestUser, testutil.TestUserPassword)

	w := s.do("POST", "/surveys/"+surveyID+"/next", map[string]interface{}{"answers": map[string]interface{}{}}, first)
	testutil.AssertStatus(t, w, http.StatusOK)

	page := func(token string) int {
		w := s.do("GET", "/surveys/"+surveyID, nil, token)
		testutil.AssertStatus(t, w, http.StatusOK)
		var view responder.SurveyView
		testutil.AssertJSON(t, w, &view)
		return view.Page.PageNumber
	}

	if got := page(first); got != 2 {
		t.Errorf("Expected the first login on page 2, got %d", got)
	}
	if got := page(second); got != 1 {
		t.Errorf("Expected the second login on page 1, got %d", got)
	}
}
