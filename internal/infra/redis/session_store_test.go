package redis_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	redisinfra "nextgen-quiz-service/internal/infra/redis"
)

func TestSessionStoreLivenessKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := redisinfra.NewSessionStore(client, time.Hour)

	session := store.GetOrCreate("s1")
	if session.ID() != "s1" {
		t.Fatalf("id = %q, want s1", session.ID())
	}
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("liveness key must be set on create")
	}

	if again := store.GetOrCreate("s1"); again != session {
		t.Fatalf("GetOrCreate must return the same session")
	}
	got, ok := store.Get("s1")
	if !ok || got != session {
		t.Fatalf("Get must find the created session")
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("deleted session must be gone")
	}
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("liveness key must be removed on delete")
	}
}
