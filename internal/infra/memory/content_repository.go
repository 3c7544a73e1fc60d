package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"course-progress-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ConceptPageLoader fetches concept pages from a backing store (e.g., the CMS
// read API or a document DB).
type ConceptPageLoader interface {
	LoadConceptPage(ctx context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error)
}

// ContentRepository caches concept pages with TTL to avoid repeated CMS hits.
type ContentRepository struct {
	loader ConceptPageLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedPage
}

type cachedPage struct {
	page      domain.ConceptPage
	expiresAt time.Time
}

func NewContentRepository(loader ConceptPageLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedPage),
	}
}

func (r *ContentRepository) GetConceptPage(ctx context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error) {
	pageKey := pageKey(courseID, lessonID, conceptID)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[pageKey]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.page, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(pageKey, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[pageKey]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.page, nil
		}
		r.mu.RUnlock()

		page, err := r.loader.LoadConceptPage(ctx, courseID, lessonID, conceptID)
		if err != nil {
			return domain.ConceptPage{}, err
		}

		r.mu.Lock()
		r.cache[pageKey] = cachedPage{
			page:      page,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return page, nil
	})
	if err != nil {
		return domain.ConceptPage{}, err
	}
	return result.(domain.ConceptPage), nil
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func pageKey(courseID, lessonID, conceptID string) string {
	return courseID + "/" + lessonID + "/" + conceptID
}

// StaticPageLoader is a simple loader backed by an in-memory map (useful for
// tests/demos).
type StaticPageLoader struct {
	pages map[string]domain.ConceptPage
}

func NewStaticPageLoader(pages []domain.ConceptPage) *StaticPageLoader {
	indexed := make(map[string]domain.ConceptPage, len(pages))
	for _, p := range pages {
		indexed[pageKey(p.CourseID, p.LessonID, p.ConceptID)] = p
	}
	return &StaticPageLoader{pages: indexed}
}

func (l *StaticPageLoader) LoadConceptPage(_ context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error) {
	if page, ok := l.pages[pageKey(courseID, lessonID, conceptID)]; ok {
		return page, nil
	}
	return domain.ConceptPage{}, domain.ErrConceptNotFound
}
