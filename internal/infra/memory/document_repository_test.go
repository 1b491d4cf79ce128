package memory_test

import (
	"context"
	"testing"

	"nextgen-quiz-service/internal/domain"
	"nextgen-quiz-service/internal/infra/memory"
)

func TestDocumentRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewDocumentRepository(
		domain.QuizDocument{Title: "b"},
		domain.QuizDocument{Title: "a"},
	)

	docs, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 || docs[0].Title != "a" || docs[1].Title != "b" {
		t.Fatalf("expected sorted [a b], got %+v", docs)
	}

	if err := repo.Upsert(ctx, domain.QuizDocument{Title: "a", Course: "CSC 101"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	docs, _ = repo.ListAll(ctx)
	if len(docs) != 2 || docs[0].Course != "CSC 101" {
		t.Fatalf("upsert must replace in place, got %+v", docs)
	}

	n, err := repo.Delete(ctx, "a")
	if err != nil || n != 1 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}
	n, err = repo.Delete(ctx, "a")
	if err != nil || n != 0 {
		t.Fatalf("repeat delete: n=%d err=%v", n, err)
	}
}
