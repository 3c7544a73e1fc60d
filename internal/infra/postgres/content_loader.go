package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"course-progress-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ContentLoader loads concept-page JSONB from Postgres.
type ContentLoader struct {
	pool *pgxpool.Pool
}

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

func (l *ContentLoader) LoadConceptPage(ctx context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT data FROM concept_pages WHERE course_id=$1 AND lesson_id=$2 AND concept_id=$3`,
		courseID, lessonID, conceptID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ConceptPage{}, domain.ErrConceptNotFound
	}
	if err != nil {
		return domain.ConceptPage{}, fmt.Errorf("load concept page: %w", err)
	}
	var page domain.ConceptPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return domain.ConceptPage{}, fmt.Errorf("unmarshal concept page: %w", err)
	}
	return page, nil
}
