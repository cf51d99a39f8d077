package rendering

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lanternhq/beacon/internal/envelope"
	"github.com/lanternhq/beacon/internal/platform"
	"github.com/lanternhq/beacon/pkg/model"
)

// RenderQueueKey is the broker's fixed render-queue list name (spec §6:
// "ob:rendering").
const RenderQueueKey = "ob:rendering"

// EnvelopeTTL is how long a signed envelope remains valid after enqueue
// (spec §4.A: "{exp: now+1440min, job}").
const EnvelopeTTL = 1440 * time.Minute

// Queue enqueues renders onto the broker's render queue (spec §4.A "Enqueue
// contract").
type Queue struct {
	broker *platform.Broker
	signer *envelope.Signer
}

// NewQueue builds a Queue signing with the shared job secret.
func NewQueue(broker *platform.Broker, signer *envelope.Signer) *Queue {
	return &Queue{broker: broker, signer: signer}
}

// Enqueue assigns a fresh id to the render, wraps it in a signed envelope,
// and RPUSHes it onto the render queue. Returns the assigned job id and the
// queue's length after the push.
func (q *Queue) Enqueue(ctx context.Context, deviceID string, auth model.Tagged, layout model.Tagged) (string, int64, error) {
	render := model.QueuedRender{
		ID:       uuid.NewString(),
		Auth:     auth,
		DeviceID: deviceID,
		Layout:   layout,
	}

	token, err := q.signer.Encode(render, EnvelopeTTL)
	if err != nil {
		return "", 0, fmt.Errorf("rendering: signing envelope: %w", err)
	}

	length, err := q.broker.RPush(ctx, RenderQueueKey, token)
	if err != nil {
		return "", 0, fmt.Errorf("rendering: pushing render onto queue: %w", err)
	}
	return render.ID, length, nil
}
