// Package session keeps the per-session chat context with optimistic
// versioning. Drivers are in-memory (local runs and tests) and Redis.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by Update when the session does not exist or has expired.
	ErrNotFound = errors.New("session not found")
	// ErrVersionConflict is returned by Update when the stored version moved on.
	ErrVersionConflict = errors.New("session version conflict")
)

// Context is what is remembered about a session between messages.
type Context struct {
	ID           string    `json:"id"`
	LastMessage  string    `json:"lastMessage"`
	LastResponse string    `json:"lastResponse"`
	Strategy     string    `json:"strategy,omitempty"`
	Messages     int       `json:"messages"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Version      int64     `json:"version"`
}

// Store persists session contexts. ttl is the idle expiry applied on write.
type Store interface {
	Get(ctx context.Context, id string) (*Context, error)
	Create(ctx context.Context, c *Context, ttl time.Duration) error
	Update(ctx context.Context, c *Context, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// maxAttempts bounds the read-merge-write loop in Record.
const maxAttempts = 3

// Record merges one exchange into the session, retrying on version
// conflicts.
func Record(ctx context.Context, s Store, id, message, response, strategy string, ttl time.Duration, now time.Time) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cur, err := s.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if cur == nil {
			err = s.Create(ctx, &Context{
				ID:           id,
				LastMessage:  message,
				LastResponse: response,
				Strategy:     strategy,
				Messages:     1,
				UpdatedAt:    now,
			}, ttl)
			if err == nil || !errors.Is(err, ErrVersionConflict) {
				return err
			}
			continue
		}

		cur.LastMessage = message
		cur.LastResponse = response
		cur.Strategy = strategy
		cur.Messages++
		cur.UpdatedAt = now
		err = s.Update(ctx, cur, ttl)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return ErrVersionConflict
}
