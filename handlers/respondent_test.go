// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-survey/models"
	"github.com/danielhkuo/quickly-survey/responder"
	"github.com/danielhkuo/quickly-survey/session"
	"github.com/danielhkuo/quickly-survey/store"
	"github.com/danielhkuo/quickly-survey/testutil"
	"github.com/danielhkuo/quickly-survey/visibility"
)

func newRespondentHandler(t *testing.T) (*RespondentHandler, *sql.DB) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	svc := responder.New(store.New(conn), session.NewMemoryStore(time.Hour), visibility.DefaultPolicy())
	return NewRespondentHandler(svc), conn
}

func userRequest(method, path string, body interface{}, surveyID string) *http.Request {
	req := testutil.MakeRequest(method, path, body, nil)
	if surveyID != "" {
		req = withParam(req, "id", surveyID)
	}
	return asUser(req, testutil.TestUser, false)
}

func answers(values map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"answers": values}
}

// TestAnsweringWorkflow walks one respondent through a two page survey:
// open, a refused next, next, submit from the last page, history.
func TestAnsweringWorkflow(t *testing.T) {
	handler, conn := newRespondentHandler(t)
	surveyID := testutil.CreateTestSurvey(t, conn, "Workflow", testutil.FutureDate(5))
	q1 := testutil.AddTestQuestion(t, conn, surveyID, "Colours?", models.TypeMulti, []string{"Red", "Blue"}, 1, 1)
	q2 := testutil.AddTestQuestion(t, conn, surveyID, "Why?", models.TypeText, nil, 2, 1)
	path := "/surveys/" + surveyID

	// Step 1: open
	w := httptest.NewRecorder()
	handler.Open(w, userRequest("GET", path, nil, surveyID))
	testutil.AssertStatus(t, w, http.StatusOK)

	var view responder.SurveyView
	testutil.AssertJSON(t, w, &view)
	if view.Status != visibility.StatusUnansweredOpen || view.Page == nil || view.Page.PageNumber != 1 {
		t.Fatalf("Step 1 - unexpected view: %+v", view)
	}

	// Step 2: next without the required answer
	w = httptest.NewRecorder()
	handler.Next(w, userRequest("POST", path+"/next", answers(map[string]interface{}{}), surveyID))
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)

	var nav responder.NavResult
	testutil.AssertJSON(t, w, &nav)
	if !nav.Refused || len(nav.Page.ValidationErrors) != 1 {
		t.Fatalf("Step 2 - expected a refusal with one warning, got %+v", nav)
	}

	// Step 3: next with it
	values := map[string]interface{}{q1: []string{"Red", "Blue"}}
	w = httptest.NewRecorder()
	handler.Next(w, userRequest("POST", path+"/next", answers(values), surveyID))
	testutil.AssertStatus(t, w, http.StatusOK)

	nav = responder.NavResult{}
	testutil.AssertJSON(t, w, &nav)
	if nav.Page == nil || nav.Page.PageNumber != 2 || !nav.Page.IsLastPage {
		t.Fatalf("Step 3 - expected the last page, got %+v", nav.Page)
	}

	// Step 4: next on the last page submits
	values[q2] = "Because"
	w = httptest.NewRecorder()
	handler.Next(w, userRequest("POST", path+"/next", answers(values), surveyID))
	testutil.AssertStatus(t, w, http.StatusOK)

	nav = responder.NavResult{}
	testutil.AssertJSON(t, w, &nav)
	if !nav.Submitted || nav.Saved != 2 {
		t.Fatalf("Step 4 - expected a submission, got %+v", nav)
	}

	stored := testutil.CountRows(t, conn,
		"SELECT COUNT(*) FROM answers WHERE username = $1 AND answer_text = $2 AND is_draft = $3",
		testutil.TestUser, `["Red","Blue"]`, false)
	if stored != 1 {
		t.Errorf("Step 4 - expected the multi answer stored as a list, got %d rows", stored)
	}

	// Step 5: history and answers
	w = httptest.NewRecorder()
	handler.History(w, userRequest("GET", "/me/history", nil, ""))
	testutil.AssertStatus(t, w, http.StatusOK)

	var history []models.HistoryEntry
	testutil.AssertJSON(t, w, &history)
	if len(history) != 1 || history[0].Title != "Workflow" {
		t.Errorf("Step 5 - unexpected history: %+v", history)
	}

	w = httptest.NewRecorder()
	handler.Answers(w, userRequest("GET", path+"/answers", nil, surveyID))
	testutil.AssertStatus(t, w, http.StatusOK)

	var loaded []models.AnsweredQuestion
	testutil.AssertJSON(t, w, &loaded)
	if len(loaded) != 2 || loaded[0].Value.Kind != models.ValueList || loaded[1].Value.Text != "Because" {
		t.Errorf("Step 5 - unexpected answers: %+v", loaded)
	}
}

func TestPrevious(t *testing.T) {
	handler, conn := newRespondentHandler(t)
	surveyID := testutil.CreateTestSurvey(t, conn, "Pages", testutil.FutureDate(5))
	testutil.AddTestQuestion(t, conn, surveyID, "One", models.TypeText, nil, 1, 1)
	testutil.AddTestQuestion(t, conn, surveyID, "Two", models.TypeText, nil, 2, 1)

	w := httptest.NewRecorder()
	handler.Previous(w, userRequest("POST", "/surveys/"+surveyID+"/previous", nil, surveyID))
	testutil.AssertStatus(t, w, http.StatusOK)

	var nav responder.NavResult
	testutil.AssertJSON(t, w, &nav)
	if nav.Page.PageNumber != 1 || nav.Page.CanGoPrevious {
		t.Errorf("Expected to stay on the first page, got %+v", nav.Page)
	}
}

func TestSaveDraft(t *testing.T) {
	handler, conn := newRespondentHandler(t)
	open := testutil.CreateTestSurvey(t, conn, "Open", testutil.FutureDate(5))
	q := testutil.AddTestQuestion(t, conn, open, "Pick", models.TypeSingle, []string{"A", "B"}, 1, 1)
	closed := testutil.CreateTestSurvey(t, conn, "Closed", testutil.StrPtr("2020-01-01"))
	testutil.AddTestQuestion(t, conn, closed, "Pick", models.TypeSingle, []string{"A", "B"}, 1, 1)

	testCases := []struct {
		name           string
		surveyID       string
		body           interface{}
		expectedStatus int
	}{
		{"open survey", open, answers(map[string]interface{}{q: "A"}), http.StatusOK},
		{"empty draft", open, answers(map[string]interface{}{}), http.StatusOK},
		{"closed survey", closed, answers(map[string]interface{}{}), http.StatusConflict},
		{"unknown survey", "missing", answers(map[string]interface{}{}), http.StatusNotFound},
		{"two values for a single choice", open, answers(map[string]interface{}{q: []string{"A", "B"}}), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.SaveDraft(w, userRequest("PUT", "/surveys/"+tc.surveyID+"/draft", tc.body, tc.surveyID))

			testutil.AssertStatus(t, w, tc.expectedStatus)
			if tc.expectedStatus == http.StatusOK {
				var resp models.SaveAnswersResponse
				testutil.AssertJSON(t, w, &resp)
				if !resp.IsDraft || resp.Saved != 1 {
					t.Errorf("Unexpected response: %+v", resp)
				}
			}
		})
	}
}

func TestSubmit(t *testing.T) {
	handler, conn := newRespondentHandler(t)
	surveyID := testutil.CreateTestSurvey(t, conn, "Submit", testutil.FutureDate(5))
	q := testutil.AddTestQuestion(t, conn, surveyID, "Pick", models.TypeSingle, []string{"A", "B"}, 1, 1)
	path := "/surveys/" + surveyID + "/submit"

	w := httptest.NewRecorder()
	handler.Submit(w, userRequest("POST", path, answers(map[string]interface{}{}), surveyID))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if len(errResp.Problems) != 1 {
		t.Errorf("Expected one problem, got %v", errResp.Problems)
	}

	w = httptest.NewRecorder()
	handler.Submit(w, userRequest("POST", path, answers(map[string]interface{}{q: "B"}), surveyID))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.SaveAnswersResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.IsDraft || resp.Saved != 1 {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestOpen_Closed(t *testing.T) {
	handler, conn := newRespondentHandler(t)
	surveyID := testutil.CreateTestSurvey(t, conn, "Closed", testutil.StrPtr("2020-01-01"))
	qid := testutil.AddTestQuestion(t, conn, surveyID, "Q", models.TypeText, nil, 1, 1)
	testutil.AddTestAnswer(t, conn, testutil.TestUser, surveyID, qid, testutil.StrPtr("draft"), true)

	w := httptest.NewRecorder()
	handler.Open(w, userRequest("GET", "/surveys/"+surveyID, nil, surveyID))

	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestDashboard(t *testing.T) {
	handler, conn := newRespondentHandler(t)
	testutil.CreateTestSurvey(t, conn, "Open", testutil.FutureDate(5))
	testutil.CreateTestSurvey(t, conn, "Closed", testutil.StrPtr("2020-01-01"))

	w := httptest.NewRecorder()
	handler.Dashboard(w, userRequest("GET", "/me/surveys", nil, ""))
	testutil.AssertStatus(t, w, http.StatusOK)

	var d responder.Dashboard
	testutil.AssertJSON(t, w, &d)
	if len(d.Unanswered) != 1 || len(d.Closed) != 1 {
		t.Errorf("Unexpected dashboard: %+v", d)
	}
}
