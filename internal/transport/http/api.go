package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"nextgen-quiz-service/internal/app"
	"nextgen-quiz-service/internal/domain"
	"nextgen-quiz-service/internal/hierarchy"
)

// API exposes the facet queries and the admin management endpoints as plain
// JSON over HTTP. Admin endpoints are gated by the configured password,
// sent in the X-Admin-Password header.
type API struct {
	service *app.QuizService
}

func NewAPI(service *app.QuizService) *API {
	return &API{service: service}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/facets", a.handleFacets)
	mux.HandleFunc("GET /api/quizzes", a.handleListQuizzes)
	mux.HandleFunc("POST /api/admin/login", a.handleLogin)
	mux.HandleFunc("POST /api/admin/quizzes", a.handleSaveQuiz)
	mux.HandleFunc("PUT /api/admin/quizzes/{title}", a.handleUpdateQuiz)
	mux.HandleFunc("POST /api/admin/quizzes/{title}/tags", a.handleRetag)
	mux.HandleFunc("DELETE /api/admin/quizzes/{title}", a.handleDeleteQuiz)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) handleFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := a.service.Facets(r.Context(), selectionFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, facets)
}

func (a *API) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.service.ListQuizzes(r.Context(), selectionFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if !a.service.Login(req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "wrong password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type saveQuizRequest struct {
	Title string          `json:"title"`
	Quiz  json.RawMessage `json:"quiz"`
	Tags  app.QuizTags    `json:"tags"`
}

func (a *API) handleSaveQuiz(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req saveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	doc, err := a.service.SaveQuizJSON(r.Context(), req.Quiz, req.Title, req.Tags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

type updateQuizRequest struct {
	NewTitle string          `json:"newTitle"`
	Quiz     json.RawMessage `json:"quiz"`
	Tags     app.QuizTags    `json:"tags"`
}

func (a *API) handleUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req updateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	doc, err := a.service.UpdateQuiz(r.Context(), r.PathValue("title"), req.Quiz, req.NewTitle, req.Tags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *API) handleRetag(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var tags app.QuizTags
	if err := json.NewDecoder(r.Body).Decode(&tags); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	changed, err := a.service.Retag(r.Context(), r.PathValue("title"), tags)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

func (a *API) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	deleted, err := a.service.DeleteQuiz(r.Context(), r.PathValue("title"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !a.service.Login(r.Header.Get("X-Admin-Password")) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "admin password required"})
		return false
	}
	return true
}

func selectionFromQuery(r *http.Request) hierarchy.Selection {
	multi := func(name string) []string {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return nil
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return hierarchy.Selection{
		Departments: multi("departments"),
		Levels:      multi("levels"),
		Semesters:   multi("semesters"),
		Courses:     multi("courses"),
		Weeks:       multi("weeks"),
		Categories:  multi("categories"),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateTitle):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrMalformedQuiz):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
