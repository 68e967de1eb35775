package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Request is the payload the external render worker consumes. Scope is
// always "series" when enqueued from the import pipeline.
type Request struct {
	ID        string  `json:"id"`
	Scope     string  `json:"scope"`
	SeriesIDs []int64 `json:"series_ids"`
	Force     bool    `json:"force"`
}

// Producer submits render jobs onto a Redis list. Enqueue is fire-and-forget
// from the commit engine's perspective: a short timeout, no waiting for the
// worker.
type Producer struct {
	client  *redis.Client
	queue   string
	timeout time.Duration
}

func NewProducer(client *redis.Client, queue string, timeout time.Duration) *Producer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Producer{client: client, queue: queue, timeout: timeout}
}

func (p *Producer) EnqueueSeriesRender(ctx context.Context, seriesIDs []int64) (string, error) {
	req := Request{
		ID:        uuid.NewString(),
		Scope:     "series",
		SeriesIDs: seriesIDs,
		Force:     false,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.LPush(ctx, p.queue, data).Err(); err != nil {
		return "", fmt.Errorf("enqueue render job: %w", err)
	}
	return req.ID, nil
}
