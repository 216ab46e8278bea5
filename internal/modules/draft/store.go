// README: Draft store. Holds each user's latest generated itinerary in
// Redis until they either save it or generate a new one. Drafts expire on
// their own so an abandoned generation does not linger.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("draft not found")

const ttl = 24 * time.Hour

// Draft is one unsaved generation result.
type Draft struct {
	Destination string    `json:"destination"`
	Preferences string    `json:"preferences"`
	Content     string    `json:"content"`
	PlacesData  *string   `json:"places_data,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func key(uid string) string {
	return fmt.Sprintf("draft:user:%s", uid)
}

// Save replaces the user's current draft.
func (s *Store) Save(ctx context.Context, uid string, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.rdb.Set(ctx, key(uid), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, uid string) (Draft, error) {
	raw, err := s.rdb.Get(ctx, key(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("load draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

// Clear removes the draft, typically right after it was saved for good.
func (s *Store) Clear(ctx context.Context, uid string) error {
	if err := s.rdb.Del(ctx, key(uid)).Err(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
