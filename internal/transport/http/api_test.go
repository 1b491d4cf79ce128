package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nextgen-quiz-service/internal/app"
	"nextgen-quiz-service/internal/infra/memory"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := app.NewQuizService(memory.NewDocumentRepository(sampleDocument()), memory.NewSessionStore(), "secret")
	mux := http.NewServeMux()
	NewAPI(service).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any, admin bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if admin {
		req.Header.Set("X-Admin-Password", "secret")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestFacetsEndpoint(t *testing.T) {
	server := newAPIServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/facets", nil, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var facets struct {
		Departments []string `json:"departments"`
		Courses     []string `json:"courses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&facets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(facets.Departments) != 1 || facets.Departments[0] != "Computer Science" {
		t.Fatalf("departments = %v", facets.Departments)
	}
	if facets.Courses != nil {
		t.Fatalf("courses must be absent without earlier-tier selections, got %v", facets.Courses)
	}

	resp = doJSON(t, http.MethodGet,
		server.URL+"/api/facets?departments=Computer+Science&levels=100+Level&semesters=First+Semester", nil, false)
	if err := json.NewDecoder(resp.Body).Decode(&facets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(facets.Courses) != 1 || facets.Courses[0] != "CSC 101" {
		t.Fatalf("courses = %v", facets.Courses)
	}
}

func TestListQuizzesEndpoint(t *testing.T) {
	server := newAPIServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/quizzes?courses=CSC+101", nil, false)
	var body struct {
		Quizzes []struct {
			Title string `json:"title"`
			Label string `json:"label"`
		} `json:"quizzes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Quizzes) != 1 || body.Quizzes[0].Title != "CSC 101 Week 1" {
		t.Fatalf("quizzes = %+v", body.Quizzes)
	}
	if body.Quizzes[0].Label == body.Quizzes[0].Title {
		t.Fatalf("label must carry the hierarchy tags, got %q", body.Quizzes[0].Label)
	}
}

func TestAdminAuth(t *testing.T) {
	server := newAPIServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/admin/quizzes", map[string]any{"quiz": map[string]any{}}, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without password, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/admin/login", map[string]string{"password": "wrong"}, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on wrong password, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, server.URL+"/api/admin/login", map[string]string{"password": "secret"}, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on correct password, got %d", resp.StatusCode)
	}
}

func TestAdminQuizLifecycle(t *testing.T) {
	server := newAPIServer(t)

	save := map[string]any{
		"title": "MAT 111 Week 2",
		"quiz":  map[string]any{"questions": []any{map[string]any{"question": "Q", "options": []string{"x", "y"}, "correct": "x"}}},
		"tags":  map[string]string{"department": "Mathematics", "level": "100 Level", "semester": "First Semester", "course": "MAT 111", "week": "Week 2"},
	}
	resp := doJSON(t, http.MethodPost, server.URL+"/api/admin/quizzes", save, true)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status = %d", resp.StatusCode)
	}

	// Duplicate title conflicts.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/admin/quizzes", save, true)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate status = %d", resp.StatusCode)
	}

	// Garbage payload is a bad request.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/admin/quizzes",
		map[string]any{"title": "Broken", "quiz": "not an object"}, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/admin/quizzes/MAT 111 Week 2/tags",
		map[string]string{"week": "Week 3"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("retag status = %d", resp.StatusCode)
	}
	var retag struct {
		Changed bool `json:"changed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&retag); err != nil || !retag.Changed {
		t.Fatalf("retag changed=%v err=%v", retag.Changed, err)
	}

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/admin/quizzes/MAT 111 Week 2", nil, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/admin/quizzes/MAT 111 Week 2/tags",
		map[string]string{"week": "Week 4"}, true)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("retag after delete status = %d", resp.StatusCode)
	}
}
