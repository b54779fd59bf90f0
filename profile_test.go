package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// setupProfileTest creates a Gin engine with the profile routes behind a stub
// identity. No DB — these tests cover the validation paths that return before
// any query runs.
func setupProfileTest() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handler{}

	router := gin.New()
	identity := func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Set("role", rolePatient)
		c.Next()
	}
	router.PATCH("/api/profile", identity, h.patchProfile)
	return router
}

// doPatchProfile sends a PATCH with a JSON body to the profile endpoint.
func doPatchProfile(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("PATCH", "/api/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPatchProfile_Validation(t *testing.T) {
	router := setupProfileTest()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"age": `},
		{"unknown gender", `{"gender":"robot"}`},
		{"unknown activity level", `{"activity_level":"couch"}`},
		{"negative age", `{"age":-1}`},
		{"implausible age", `{"age":131}`},
		{"zero height", `{"height_cm":0}`},
		{"implausible height", `{"height_cm":301}`},
		{"zero weight", `{"weight_kg":0}`},
		{"implausible weight", `{"weight_kg":701}`},
		{"empty body", `{}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doPatchProfile(router, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
