// README: Itinerary service sits between the HTTP layer and the store.
package itinerary

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

type SaveCommand struct {
	UID         string
	Name        string
	Destination string
	Preferences string
	Content     string
	PlacesData  *string
}

type AddMemoryCommand struct {
	UID         string
	ItineraryID string
	Caption     string
	PhotoBase64 *string
}

func (s *Service) Save(ctx context.Context, cmd SaveCommand) (string, error) {
	if cmd.UID == "" || cmd.Name == "" || cmd.Content == "" {
		return "", ErrBadRequest
	}
	if cmd.Preferences != "" && !json.Valid([]byte(cmd.Preferences)) {
		return "", ErrBadRequest
	}
	if cmd.PlacesData != nil && !json.Valid([]byte(*cmd.PlacesData)) {
		return "", ErrBadRequest
	}

	it := &Itinerary{
		ID:          uuid.NewString(),
		UID:         cmd.UID,
		Name:        cmd.Name,
		Destination: cmd.Destination,
		Preferences: cmd.Preferences,
		Content:     cmd.Content,
		PlacesData:  cmd.PlacesData,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Create(ctx, it); err != nil {
		return "", err
	}
	return it.ID, nil
}

func (s *Service) List(ctx context.Context, uid string) ([]Itinerary, error) {
	if uid == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListByUser(ctx, uid)
}

func (s *Service) Get(ctx context.Context, uid, id string) (*Itinerary, error) {
	if uid == "" || id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, uid, id)
}

func (s *Service) Delete(ctx context.Context, uid, id string) error {
	if uid == "" || id == "" {
		return ErrBadRequest
	}
	return s.store.Delete(ctx, uid, id)
}

func (s *Service) AddMemory(ctx context.Context, cmd AddMemoryCommand) (string, error) {
	if cmd.UID == "" || cmd.ItineraryID == "" || cmd.Caption == "" {
		return "", ErrBadRequest
	}
	m := &Memory{
		ID:          uuid.NewString(),
		ItineraryID: cmd.ItineraryID,
		Caption:     cmd.Caption,
		PhotoBase64: cmd.PhotoBase64,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AddMemory(ctx, cmd.UID, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

func (s *Service) ListMemories(ctx context.Context, uid, itineraryID string) ([]Memory, error) {
	if uid == "" || itineraryID == "" {
		return nil, ErrBadRequest
	}
	return s.store.ListMemories(ctx, uid, itineraryID)
}

func (s *Service) DeleteMemory(ctx context.Context, uid, itineraryID, memoryID string) error {
	if uid == "" || itineraryID == "" || memoryID == "" {
		return ErrBadRequest
	}
	return s.store.DeleteMemory(ctx, uid, itineraryID, memoryID)
}
