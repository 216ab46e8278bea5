// README: Itinerary store backed by PostgreSQL. Every query is scoped by
// the owning uid so one user can never see or touch another's rows.
package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, it *Itinerary) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO itineraries (id, uid, name, destination, preferences, generated_content, places_data, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		it.ID, it.UID, it.Name, it.Destination, it.Preferences, it.Content, it.PlacesData, it.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert itinerary: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, uid string) ([]Itinerary, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, uid, name, destination, preferences, generated_content, places_data, created_at
        FROM itineraries
        WHERE uid = $1
        ORDER BY created_at DESC`, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}
	defer rows.Close()

	var out []Itinerary
	for rows.Next() {
		var it Itinerary
		if err := rows.Scan(&it.ID, &it.UID, &it.Name, &it.Destination, &it.Preferences, &it.Content, &it.PlacesData, &it.CreatedAt); err != nil {
			return nil, err
		}
		sanitizePlacesData(&it)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, uid, id string) (*Itinerary, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, uid, name, destination, preferences, generated_content, places_data, created_at
        FROM itineraries
        WHERE uid = $1 AND id = $2`, uid, id,
	)

	var it Itinerary
	err := row.Scan(&it.ID, &it.UID, &it.Name, &it.Destination, &it.Preferences, &it.Content, &it.PlacesData, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sanitizePlacesData(&it)
	return &it, nil
}

// Delete removes an itinerary and its memories in one transaction.
func (s *Store) Delete(ctx context.Context, uid, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
        DELETE FROM memories
        WHERE itinerary_id IN (SELECT id FROM itineraries WHERE uid = $1 AND id = $2)`,
		uid, id,
	); err != nil {
		return fmt.Errorf("delete memories: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM itineraries WHERE uid = $1 AND id = $2`, uid, id)
	if err != nil {
		return fmt.Errorf("delete itinerary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) AddMemory(ctx context.Context, uid string, m *Memory) error {
	tag, err := s.db.Exec(ctx, `
        INSERT INTO memories (id, itinerary_id, caption, photo_base64, created_at)
        SELECT $1, i.id, $3, $4, $5
        FROM itineraries i
        WHERE i.uid = $2 AND i.id = $6`,
		m.ID, uid, m.Caption, m.PhotoBase64, m.CreatedAt, m.ItineraryID,
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListMemories(ctx context.Context, uid, itineraryID string) ([]Memory, error) {
	rows, err := s.db.Query(ctx, `
        SELECT m.id, m.itinerary_id, m.caption, m.photo_base64, m.created_at
        FROM memories m
        JOIN itineraries i ON i.id = m.itinerary_id
        WHERE i.uid = $1 AND i.id = $2
        ORDER BY m.created_at DESC`, uid, itineraryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.ItineraryID, &m.Caption, &m.PhotoBase64, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMemory(ctx context.Context, uid, itineraryID, memoryID string) error {
	tag, err := s.db.Exec(ctx, `
        DELETE FROM memories m
        USING itineraries i
        WHERE m.itinerary_id = i.id AND i.uid = $1 AND i.id = $2 AND m.id = $3`,
		uid, itineraryID, memoryID,
	)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemoryNotFound
	}
	return nil
}

// sanitizePlacesData drops stored place payloads that are no longer valid
// JSON so readers never have to defend against them.
func sanitizePlacesData(it *Itinerary) {
	if it.PlacesData == nil {
		return
	}
	if !json.Valid([]byte(*it.PlacesData)) {
		log.Printf("itinerary: dropping corrupt places data on %s", it.ID)
		it.PlacesData = nil
	}
}
