package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"course-progress-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ProgressStore is a Redis-backed implementation of app.ProgressStore.
// Layout per (user, course):
//   - progress:{user}:{course}:concepts                  SET of "lesson/concept"
//   - progress:{user}:{course}:{lesson}:{concept}         HASH started_at, completed_at (RFC3339)
//   - progress:{user}:{course}:{lesson}:{concept}:quizzes LIST of QuizResult JSON
//
// Merge maps to HSET of only the provided fields and RPUSH gives quiz-result
// appends the atomicity the progress core assumes.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) Get(ctx context.Context, userID, courseID string) (domain.CourseProgress, error) {
	members, err := s.client.SMembers(ctx, s.conceptsKey(userID, courseID)).Result()
	if err != nil {
		return domain.CourseProgress{}, fmt.Errorf("get progress: %w", err)
	}

	record := domain.CourseProgress{}
	for _, member := range members {
		lessonID, conceptID, ok := splitMember(member)
		if !ok {
			continue
		}
		fields, err := s.client.HGetAll(ctx, s.conceptKey(userID, courseID, lessonID, conceptID)).Result()
		if err != nil {
			return domain.CourseProgress{}, fmt.Errorf("get concept progress: %w", err)
		}
		cp := domain.ConceptProgress{
			StartedAt:   parseTime(fields["started_at"]),
			CompletedAt: parseTime(fields["completed_at"]),
		}
		raw, err := s.client.LRange(ctx, s.quizzesKey(userID, courseID, lessonID, conceptID), 0, -1).Result()
		if err != nil {
			return domain.CourseProgress{}, fmt.Errorf("get quiz results: %w", err)
		}
		for _, item := range raw {
			var result domain.QuizResult
			if err := json.Unmarshal([]byte(item), &result); err != nil {
				return domain.CourseProgress{}, fmt.Errorf("unmarshal quiz result: %w", err)
			}
			cp.Quizzes = append(cp.Quizzes, result)
		}
		record.SetConcept(lessonID, conceptID, cp)
	}
	return record, nil
}

func (s *ProgressStore) Merge(ctx context.Context, userID, courseID string, patch domain.ProgressPatch) error {
	pipe := s.client.Pipeline()
	for lessonID, concepts := range patch.Lessons {
		for conceptID, cp := range concepts {
			pipe.SAdd(ctx, s.conceptsKey(userID, courseID), member(lessonID, conceptID))
			fields := make(map[string]interface{}, 2)
			if cp.StartedAt != nil {
				fields["started_at"] = cp.StartedAt.UTC().Format(time.RFC3339Nano)
			}
			if cp.CompletedAt != nil {
				fields["completed_at"] = cp.CompletedAt.UTC().Format(time.RFC3339Nano)
			}
			if len(fields) > 0 {
				pipe.HSet(ctx, s.conceptKey(userID, courseID, lessonID, conceptID), fields)
			}
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("merge progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) AppendQuizResult(ctx context.Context, userID, courseID, lessonID, conceptID string, result domain.QuizResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal quiz result: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, s.conceptsKey(userID, courseID), member(lessonID, conceptID))
	pipe.RPush(ctx, s.quizzesKey(userID, courseID, lessonID, conceptID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append quiz result: %w", err)
	}
	return nil
}

func (s *ProgressStore) conceptsKey(userID, courseID string) string {
	return "progress:" + userID + ":" + courseID + ":concepts"
}

func (s *ProgressStore) conceptKey(userID, courseID, lessonID, conceptID string) string {
	return "progress:" + userID + ":" + courseID + ":" + lessonID + ":" + conceptID
}

func (s *ProgressStore) quizzesKey(userID, courseID, lessonID, conceptID string) string {
	return s.conceptKey(userID, courseID, lessonID, conceptID) + ":quizzes"
}

func member(lessonID, conceptID string) string {
	return lessonID + "/" + conceptID
}

func splitMember(m string) (lessonID, conceptID string, ok bool) {
	parts := strings.SplitN(m, "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil
	}
	return &ts
}
