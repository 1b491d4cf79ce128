package memory

import (
	"context"
	"sort"
	"sync"

	"nextgen-quiz-service/internal/domain"
)

// DocumentRepository is an in-memory implementation of
// app.DocumentRepository, useful for tests and demo mode.
type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]domain.QuizDocument
}

func NewDocumentRepository(seed ...domain.QuizDocument) *DocumentRepository {
	r := &DocumentRepository{docs: make(map[string]domain.QuizDocument, len(seed))}
	for _, doc := range seed {
		r.docs[doc.Title] = doc
	}
	return r
}

func (r *DocumentRepository) ListAll(_ context.Context) ([]domain.QuizDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.QuizDocument, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *DocumentRepository) Upsert(_ context.Context, doc domain.QuizDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.Title] = doc
	return nil
}

func (r *DocumentRepository) Delete(_ context.Context, title string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[title]; !ok {
		return 0, nil
	}
	delete(r.docs, title)
	return 1, nil
}
