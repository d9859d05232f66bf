// Package notify publishes account events for out-of-process delivery,
// such as the mail worker that sends verification links.
package notify

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

const VerifyEmailRoutingKey = "user.verify_email"

type VerifyEmailEvent struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e VerifyEmailEvent) key() []byte {
	return []byte(strconv.FormatInt(e.UserID, 10))
}

func (e VerifyEmailEvent) body() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	PublishVerifyEmail(ctx context.Context, event VerifyEmailEvent) error
	Close() error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishVerifyEmail(context.Context, VerifyEmailEvent) error { return nil }
func (Noop) Close() error                                               { return nil }
