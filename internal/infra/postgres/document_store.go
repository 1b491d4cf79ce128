package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"nextgen-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// DocumentStore persists quiz documents as JSONB rows keyed by unique
// title. Writes are atomic at the single-document granularity
// (replace-or-insert by title); nothing here needs cross-document
// transactions.
type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

func (s *DocumentStore) ListAll(ctx context.Context) ([]domain.QuizDocument, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quiz_documents ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var docs []domain.QuizDocument
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc domain.QuizDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return docs, nil
}

func (s *DocumentStore) Upsert(ctx context.Context, doc domain.QuizDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_documents (title, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (title) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		doc.Title, data)
	if err != nil {
		return fmt.Errorf("upsert %q: %w: %w", doc.Title, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, title string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quiz_documents WHERE title=$1`, title)
	if err != nil {
		return 0, fmt.Errorf("delete %q: %w: %w", title, domain.ErrStoreUnavailable, err)
	}
	return int(tag.RowsAffected()), nil
}
