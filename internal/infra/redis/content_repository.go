package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"course-progress-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ConceptPageLoader fetches concept pages from a backing store (e.g., the CMS
// read API or a document DB).
type ConceptPageLoader interface {
	LoadConceptPage(ctx context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error)
}

// ContentRepository caches full concept-page JSON in Redis and falls back to
// a loader on cache miss. Pages are stored as:
//
//	SET content:{courseID}:{lessonID}:{conceptID} {json} EX ttl
type ContentRepository struct {
	client *redis.Client
	loader ConceptPageLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentRepository(client *redis.Client, loader ConceptPageLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) GetConceptPage(ctx context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error) {
	key := r.key(courseID, lessonID, conceptID)

	raw, err := r.client.Get(ctx, key).Result()
	if err == nil {
		return unmarshalPage(raw)
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		raw, err := r.client.Get(ctx, key).Result()
		if err == nil {
			return unmarshalPage(raw)
		}

		page, err := r.loader.LoadConceptPage(ctx, courseID, lessonID, conceptID)
		if err != nil {
			return domain.ConceptPage{}, err
		}

		data, err := json.Marshal(page)
		if err != nil {
			return domain.ConceptPage{}, fmt.Errorf("marshal concept page: %w", err)
		}
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()

		return page, nil
	})
	if err != nil {
		return domain.ConceptPage{}, err
	}
	return result.(domain.ConceptPage), nil
}

func (r *ContentRepository) key(courseID, lessonID, conceptID string) string {
	return "content:" + courseID + ":" + lessonID + ":" + conceptID
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func unmarshalPage(raw string) (domain.ConceptPage, error) {
	var page domain.ConceptPage
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return domain.ConceptPage{}, fmt.Errorf("unmarshal concept page: %w", err)
	}
	return page, nil
}
