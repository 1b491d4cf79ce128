package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"nextgen-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// docsKey is a hash of title -> full document JSON. Caching whole documents
// lets the hierarchy facets and the list labels work off the cache without
// touching the backing store.
const docsKey = "quizzes:docs"

// DocumentCache is a read-through Redis cache in front of a durable
// document repository. Reads fill the cache under singleflight so a cold
// start hits the store once; writes go to the store first and then
// invalidate the cache, keeping it a plain projection.
type DocumentCache struct {
	client *redis.Client
	store  Store
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

// Store is the durable repository the cache protects (e.g. Postgres).
type Store interface {
	ListAll(ctx context.Context) ([]domain.QuizDocument, error)
	Upsert(ctx context.Context, doc domain.QuizDocument) error
	Delete(ctx context.Context, title string) (int, error)
}

func NewDocumentCache(client *redis.Client, store Store, ttl time.Duration) *DocumentCache {
	return &DocumentCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DocumentCache) ListAll(ctx context.Context) ([]domain.QuizDocument, error) {
	cached, err := c.client.HGetAll(ctx, docsKey).Result()
	if err == nil && len(cached) > 0 {
		return decodeDocs(cached)
	}

	result, err, _ := c.sf.Do(docsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := c.client.HGetAll(ctx, docsKey).Result()
		if err == nil && len(cached) > 0 {
			return decodeDocs(cached)
		}

		docs, err := c.store.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			fields := make(map[string]interface{}, len(docs))
			for _, doc := range docs {
				data, err := json.Marshal(doc)
				if err != nil {
					continue
				}
				fields[doc.Title] = data
			}
			pipe := c.client.Pipeline()
			pipe.HSet(ctx, docsKey, fields)
			if ttl := c.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, docsKey, ttl)
			}
			_, _ = pipe.Exec(ctx)
		}
		return docs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizDocument), nil
}

func (c *DocumentCache) Upsert(ctx context.Context, doc domain.QuizDocument) error {
	if err := c.store.Upsert(ctx, doc); err != nil {
		return err
	}
	// Invalidate rather than patch: a partial hash would later be mistaken
	// for the full set.
	_ = c.client.Del(ctx, docsKey).Err()
	return nil
}

func (c *DocumentCache) Delete(ctx context.Context, title string) (int, error) {
	n, err := c.store.Delete(ctx, title)
	if err != nil {
		return 0, err
	}
	_ = c.client.Del(ctx, docsKey).Err()
	return n, nil
}

func decodeDocs(cached map[string]string) ([]domain.QuizDocument, error) {
	docs := make([]domain.QuizDocument, 0, len(cached))
	for _, raw := range cached {
		var doc domain.QuizDocument
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Title < docs[j].Title })
	return docs, nil
}

func (c *DocumentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
