// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/quickly-survey/auth"
	"github.com/danielhkuo/quickly-survey/models"
	"github.com/danielhkuo/quickly-survey/testutil"
)

func TestLogin(t *testing.T) {
	a := testutil.NewTestAuthenticator(t)
	handler := NewAuthHandler(a)

	testCases := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectAdmin    bool
	}{
		{
			name:           "respondent",
			body:           models.LoginRequest{Username: testutil.TestUser, Password: testutil.TestUserPassword},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "admin",
			body:           models.LoginRequest{Username: testutil.TestAdmin, Password: testutil.TestAdminPassword},
			expectedStatus: http.StatusOK,
			expectAdmin:    true,
		},
		{
			name:           "wrong password",
			body:           models.LoginRequest{Username: testutil.TestUser, Password: "nope"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown user",
			body:           models.LoginRequest{Username: "mallory", Password: "nope"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing password",
			body:           models.LoginRequest{Username: testutil.TestUser},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/auth/login", tc.body, nil)
			w := httptest.NewRecorder()

			handler.Login(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
			if tc.expectedStatus != http.StatusOK {
				return
			}

			var resp models.LoginResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Token == "" {
				t.Fatal("Expected a token")
			}
			if resp.IsAdmin != tc.expectAdmin {
				t.Errorf("Expected is_admin %v, got %v", tc.expectAdmin, resp.IsAdmin)
			}

			// The token must authenticate later requests
			check := httptest.NewRequest("GET", "/", nil)
			check.Header.Set("Authorization", "Bearer "+resp.Token)
			id, err := a.Authenticate(check)
			if err != nil {
				t.Fatalf("Failed to authenticate with issued token: %v", err)
			}
			if id.SessionID == "" {
				t.Error("Expected a session id in the token")
			}
		})
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	handler := NewAuthHandler(auth.NewAuthenticator(&auth.Credentials{}, auth.NewIssuer("x", 0)))

	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader("{bad"))
	w := httptest.NewRecorder()

	handler.Login(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}
