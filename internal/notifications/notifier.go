// Package notifications publishes request lifecycle events over Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event names published on request lifecycle transitions.
const (
	EventRequestSubmitted = "request_submitted"
	EventRequestApproved  = "request_approved"
	EventRequestRejected  = "request_rejected"
)

// RequestEvent is the payload published for a request lifecycle transition.
type RequestEvent struct {
	Event         string    `json:"event"`
	RequestID     uint      `json:"request_id"`
	DocumentID    uint      `json:"document_id"`
	DocumentTitle string    `json:"document_title,omitempty"`
	RequesterID   uint      `json:"requester_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishAdmins sends a notification payload to the shared reviewer channel.
func (n *Notifier) PublishAdmins(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, AdminChannel(), payload).Err()
}

// PublishRequestEvent marshals the event and routes it to the right channel:
// submissions go to reviewers, decisions go back to the requester.
func (n *Notifier) PublishRequestEvent(ctx context.Context, event RequestEvent) error {
	if n.rdb == nil {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if event.Event == EventRequestSubmitted {
		return n.PublishAdmins(ctx, string(payload))
	}
	return n.PublishUser(ctx, event.RequesterID, string(payload))
}

// StartPatternSubscriber subscribes to user and admin notification channels and
// calls onMessage for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*", "notifications:admins")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}

// AdminChannel is the shared channel reviewers subscribe to.
func AdminChannel() string {
	return "notifications:admins"
}
