// Package queue is the Redis-backed job queue connecting the API to the
// consolidation worker. The API enqueues a job every few player turns; the
// worker blocks on the queue and runs the memory consolidator.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const consolidationQueueKey = "consolidation:jobs"

// Job is one consolidation request.
type Job struct {
	JobID      string    `json:"job_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue is the Redis consolidation queue.
type Queue struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a queue on an existing Redis address.
func New(redisURL string, logger *slog.Logger) *Queue {
	return &Queue{
		client: redis.NewClient(&redis.Options{Addr: redisURL}),
		logger: logger,
	}
}

func (q *Queue) Ping(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("queue ping failed: %w", err)
	}
	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// Enqueue pushes a consolidation job for a campaign.
func (q *Queue) Enqueue(ctx context.Context, campaignID uuid.UUID) error {
	job := Job{
		JobID:      uuid.NewString(),
		CampaignID: campaignID,
		EnqueuedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, consolidationQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	q.logger.Debug("enqueued consolidation job", "job_id", job.JobID, "campaign_id", campaignID)
	return nil
}

// Dequeue blocks up to timeout for the next job. Returns (nil, nil) when
// the wait times out with an empty queue.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, consolidationQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	// BLPop returns [key, value].
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected blpop result length %d", len(result))
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// Depth returns the number of pending jobs.
func (q *Queue) Depth(ctx context.Context) (int, error) {
	count, err := q.client.LLen(ctx, consolidationQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}
