package redis

import (
	"context"
	"fmt"
	"strconv"

	"course-progress-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// FeedbackStore keeps one feedback hash per (user, concept); merges overwrite.
type FeedbackStore struct {
	client *redis.Client
}

func NewFeedbackStore(client *redis.Client) *FeedbackStore {
	return &FeedbackStore{client: client}
}

func (s *FeedbackStore) Merge(ctx context.Context, userID, conceptID string, feedback domain.Feedback) error {
	fields := map[string]interface{}{
		"value": strconv.Itoa(feedback.Value),
		"type":  feedback.Type,
	}
	if feedback.Comment != "" {
		fields["feedback"] = feedback.Comment
	}
	if err := s.client.HSet(ctx, s.key(userID, conceptID), fields).Err(); err != nil {
		return fmt.Errorf("merge feedback: %w", err)
	}
	return nil
}

func (s *FeedbackStore) key(userID, conceptID string) string {
	return "feedback:" + userID + ":" + conceptID
}
