package app

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"nextgen-quiz-service/internal/attempt"
	"nextgen-quiz-service/internal/domain"
	"nextgen-quiz-service/internal/hierarchy"
)

// DocumentRepository is the durable store of quiz documents keyed by unique
// title (in-memory, Postgres, Redis-cached, etc).
type DocumentRepository interface {
	ListAll(ctx context.Context) ([]domain.QuizDocument, error)
	Upsert(ctx context.Context, doc domain.QuizDocument) error
	Delete(ctx context.Context, title string) (int, error)
}

// SessionStore abstracts how user sessions are stored.
type SessionStore interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizService contains the quiz delivery and management use cases.
type QuizService struct {
	docs          DocumentRepository
	sessions      SessionStore
	engine        *attempt.Engine
	adminPassword string
}

func NewQuizService(docs DocumentRepository, sessions SessionStore, adminPassword string) *QuizService {
	return NewQuizServiceWithEngine(docs, sessions, attempt.NewEngine(), adminPassword)
}

// NewQuizServiceWithEngine allows deterministic shuffles and clocks in tests.
func NewQuizServiceWithEngine(docs DocumentRepository, sessions SessionStore, engine *attempt.Engine, adminPassword string) *QuizService {
	return &QuizService{docs: docs, sessions: sessions, engine: engine, adminPassword: adminPassword}
}

// Login checks the admin password. An empty configured password disables
// admin access entirely.
func (s *QuizService) Login(password string) bool {
	if s.adminPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
}

// Facets are the cascading filter options. Later tiers stay nil until every
// earlier tier has a selection, so combinatorially invalid values are never
// offered.
type Facets struct {
	Departments []string `json:"departments"`
	Levels      []string `json:"levels"`
	Semesters   []string `json:"semesters"`
	Courses     []string `json:"courses,omitempty"`
	Weeks       []string `json:"weeks,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// Facets computes the filter options for the given selection.
func (s *QuizService) Facets(ctx context.Context, sel hierarchy.Selection) (Facets, error) {
	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return Facets{}, err
	}
	f := Facets{
		Departments: hierarchy.Departments(docs),
		Levels:      hierarchy.Levels(docs),
		Semesters:   hierarchy.Semesters(docs),
	}
	if len(sel.Departments) > 0 && len(sel.Levels) > 0 && len(sel.Semesters) > 0 {
		f.Courses = hierarchy.Courses(docs, sel.Departments, sel.Levels, sel.Semesters)
		if len(sel.Courses) > 0 {
			f.Weeks = hierarchy.Weeks(docs, sel.Levels, sel.Semesters, sel.Courses)
			if len(sel.Weeks) > 0 {
				f.Categories = hierarchy.Categories(docs, sel.Levels, sel.Semesters, sel.Courses, sel.Weeks)
			}
		}
	}
	return f, nil
}

// QuizSummary is one entry of the filtered quiz list.
type QuizSummary struct {
	Title string `json:"title"`
	Label string `json:"label"`
}

// ListQuizzes returns the quizzes matching the selection, sorted by label.
func (s *QuizService) ListQuizzes(ctx context.Context, sel hierarchy.Selection) ([]QuizSummary, error) {
	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := hierarchy.Filter(docs, sel)
	out := make([]QuizSummary, 0, len(matched))
	for _, doc := range matched {
		out = append(out, QuizSummary{Title: doc.Title, Label: hierarchy.Label(doc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// GetQuiz loads a single document by title.
func (s *QuizService) GetQuiz(ctx context.Context, title string) (domain.QuizDocument, error) {
	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return domain.QuizDocument{}, err
	}
	for _, doc := range docs {
		if doc.Title == title {
			return doc, nil
		}
	}
	return domain.QuizDocument{}, domain.ErrQuizNotFound
}

// timerPresetMinutes are the time limit choices offered while configuring
// an attempt. The engine itself accepts any positive minute count.
var timerPresetMinutes = []int{5, 10, 15, 20, 25, 30, 40, 50, 60}

// AttemptSnapshot is the pure state the boundary renders after each intent.
type AttemptSnapshot struct {
	QuizTitle    string                      `json:"quizTitle"`
	Phase        string                      `json:"phase"`
	Questions    []attempt.PresentedQuestion `json:"questions"`
	Timer        attempt.TimerStatus         `json:"timer"`
	TimerPresets []int                       `json:"timerPresets,omitempty"`
	Score        *attempt.Score              `json:"score,omitempty"`
	Percent      int                         `json:"percent"`
	TimerExpired bool                        `json:"timerExpired"`
	Reveal       bool                        `json:"reveal"`
	Responses    map[int]int                 `json:"responses"`
}

// SelectQuiz binds a quiz to the session, destroying any previous attempt
// and creating a fresh one in the configuring phase.
func (s *QuizService) SelectQuiz(ctx context.Context, sessionID, title string) (AttemptSnapshot, error) {
	doc, err := s.GetQuiz(ctx, title)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	session := s.sessions.GetOrCreate(sessionID)
	session.mu.Lock()
	defer session.mu.Unlock()
	session.title = title
	session.attempt = s.engine.New(doc)
	return s.snapshotLocked(session), nil
}

// StartAttempt starts the session's attempt with an optional time limit in
// minutes (zero means unlimited).
func (s *QuizService) StartAttempt(sessionID string, timeLimitMinutes int) (AttemptSnapshot, error) {
	return s.withAttempt(sessionID, func(a *attempt.Attempt) error {
		return s.engine.Start(a, timeLimitMinutes)
	})
}

// Answer records a response at a presentation position.
func (s *QuizService) Answer(sessionID string, position, option int) (AttemptSnapshot, error) {
	return s.withAttempt(sessionID, func(a *attempt.Attempt) error {
		return s.engine.RecordResponse(a, position, option)
	})
}

// SubmitAttempt ends the attempt and computes the score.
func (s *QuizService) SubmitAttempt(sessionID string) (AttemptSnapshot, error) {
	return s.withAttempt(sessionID, func(a *attempt.Attempt) error {
		return s.engine.Submit(a)
	})
}

// TickAttempt polls the session's timer. When the limit has run out it
// performs the auto-submit transition; expiredNow is true exactly on the
// call that ended the attempt.
func (s *QuizService) TickAttempt(sessionID string) (status attempt.TimerStatus, expiredNow bool, err error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return attempt.TimerStatus{}, false, domain.ErrSessionNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	a := session.attempt
	if a == nil || a.Phase() != attempt.PhaseInProgress {
		return attempt.TimerStatus{State: attempt.TimerUnlimited}, false, nil
	}
	status = s.engine.Tick(a)
	if status.State == attempt.TimerExpired {
		if err := s.engine.Expire(a); err != nil {
			return status, false, err
		}
		return status, true, nil
	}
	return status, false, nil
}

// ToggleReveal flips answer disclosure and returns the review items when
// answers are revealed.
func (s *QuizService) ToggleReveal(sessionID string) (bool, []attempt.ReviewItem, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return false, nil, domain.ErrSessionNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	a := session.attempt
	if a == nil {
		return false, nil, domain.ErrNoQuizSelected
	}
	if err := a.ToggleReveal(); err != nil {
		return false, nil, err
	}
	if !a.RevealAnswers() {
		return false, nil, nil
	}
	items, err := a.Review()
	if err != nil {
		return false, nil, err
	}
	return true, items, nil
}

// RestartAttempt discards the attempt and puts a fresh one on the same
// document back into the configuring phase.
func (s *QuizService) RestartAttempt(sessionID string) (AttemptSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return AttemptSnapshot{}, domain.ErrSessionNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.attempt == nil {
		return AttemptSnapshot{}, domain.ErrNoQuizSelected
	}
	session.attempt = s.engine.Restart(session.attempt)
	return s.snapshotLocked(session), nil
}

// Snapshot returns the session's current attempt state.
func (s *QuizService) Snapshot(sessionID string) (AttemptSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return AttemptSnapshot{}, domain.ErrSessionNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.attempt == nil {
		return AttemptSnapshot{}, domain.ErrNoQuizSelected
	}
	return s.snapshotLocked(session), nil
}

// EndSession drops the session and its attempt state.
func (s *QuizService) EndSession(sessionID string) {
	s.sessions.Delete(sessionID)
}

func (s *QuizService) withAttempt(sessionID string, fn func(*attempt.Attempt) error) (AttemptSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return AttemptSnapshot{}, domain.ErrSessionNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.attempt == nil {
		return AttemptSnapshot{}, domain.ErrNoQuizSelected
	}
	if err := fn(session.attempt); err != nil {
		return AttemptSnapshot{}, err
	}
	return s.snapshotLocked(session), nil
}

func (s *QuizService) snapshotLocked(session *Session) AttemptSnapshot {
	a := session.attempt
	snap := AttemptSnapshot{
		QuizTitle:    session.title,
		Phase:        a.Phase().String(),
		Questions:    a.Questions(),
		Timer:        s.engine.Tick(a),
		TimerExpired: a.TimerExpired(),
		Reveal:       a.RevealAnswers(),
		Responses:    a.Responses(),
	}
	if a.Phase() == attempt.PhaseConfiguring {
		snap.TimerPresets = append([]int(nil), timerPresetMinutes...)
	}
	if score, ok := a.Score(); ok {
		snap.Score = &score
		snap.Percent = score.Percent()
	}
	return snap
}

// QuizTags are the hierarchy fields chosen via form controls during
// authoring. Empty values mean "not provided" on add and "clear the field"
// on edit.
type QuizTags struct {
	Department   string `json:"department"`
	Subcategory  string `json:"subcategory"`
	Level        string `json:"level"`
	Semester     string `json:"semester"`
	Course       string `json:"course"`
	Week         string `json:"week"`
	QuizCategory string `json:"quiz_category"`
}

// SaveQuizJSON parses raw authoring JSON, merges in the chosen tags, and
// inserts the document. The title resolves from the explicit argument, then
// the payload's quiz_title, then a generated fallback. Adding under an
// existing title fails with ErrDuplicateTitle; malformed JSON never reaches
// the store.
func (s *QuizService) SaveQuizJSON(ctx context.Context, raw []byte, title string, tags QuizTags) (domain.QuizDocument, error) {
	doc, err := parseQuizJSON(raw)
	if err != nil {
		return domain.QuizDocument{}, err
	}

	docs, err := s.docs.ListAll(ctx)
	if err != nil {
		return domain.QuizDocument{}, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = doc.Title
	}
	if title == "" {
		title = fmt.Sprintf("Quiz_%d", len(docs)+1)
	}
	for _, existing := range docs {
		if existing.Title == title {
			return domain.QuizDocument{}, domain.ErrDuplicateTitle
		}
	}

	doc.Title = title
	applyTags(&doc, tags, false)
	if doc.DepartmentOrLegacy() == "" {
		doc.Department = "Uncategorized"
	}

	if err := s.docs.Upsert(ctx, doc); err != nil {
		return domain.QuizDocument{}, err
	}
	return doc, nil
}

// UpdateQuiz replaces an existing document from edited JSON. Tags left
// empty are cleared, which removes the key from the stored document and
// keeps it canonical.
func (s *QuizService) UpdateQuiz(ctx context.Context, title string, raw []byte, newTitle string, tags QuizTags) (domain.QuizDocument, error) {
	if _, err := s.GetQuiz(ctx, title); err != nil {
		return domain.QuizDocument{}, err
	}
	doc, err := parseQuizJSON(raw)
	if err != nil {
		return domain.QuizDocument{}, err
	}

	doc.Title = strings.TrimSpace(newTitle)
	if doc.Title == "" {
		doc.Title = title
	}
	applyTags(&doc, tags, true)

	if err := s.docs.Upsert(ctx, doc); err != nil {
		return domain.QuizDocument{}, err
	}
	return doc, nil
}

// Retag updates the hierarchy assignment of an existing document in place.
// Only provided values are written; returns whether anything changed.
func (s *QuizService) Retag(ctx context.Context, title string, tags QuizTags) (bool, error) {
	doc, err := s.GetQuiz(ctx, title)
	if err != nil {
		return false, err
	}
	if !applyTags(&doc, tags, false) {
		return false, nil
	}
	if err := s.docs.Upsert(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteQuiz removes a document by title, returning how many were deleted
// (0 or 1).
func (s *QuizService) DeleteQuiz(ctx context.Context, title string) (int, error) {
	return s.docs.Delete(ctx, title)
}

func parseQuizJSON(raw []byte) (domain.QuizDocument, error) {
	var doc domain.QuizDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.QuizDocument{}, fmt.Errorf("%w: %v", domain.ErrMalformedQuiz, err)
	}
	return doc, nil
}

// applyTags merges form-chosen hierarchy fields into a document. With
// clearEmpty, an empty tag removes the field; otherwise empty tags leave
// the payload's own value alone. Reports whether anything changed.
func applyTags(doc *domain.QuizDocument, tags QuizTags, clearEmpty bool) bool {
	changed := false
	set := func(dst *string, val string) {
		val = strings.TrimSpace(val)
		if val != "" && val != *dst {
			*dst = val
			changed = true
		} else if val == "" && clearEmpty && *dst != "" {
			*dst = ""
			changed = true
		}
	}
	set(&doc.Department, tags.Department)
	if doc.Department != "" && doc.Category != "" {
		doc.Category = "" // superseded legacy alias
		changed = true
	}
	set(&doc.Subcategory, tags.Subcategory)
	set(&doc.Level, tags.Level)
	set(&doc.Semester, tags.Semester)
	set(&doc.Course, tags.Course)
	set(&doc.Week, tags.Week)
	set(&doc.QuizCategory, tags.QuizCategory)
	return changed
}
