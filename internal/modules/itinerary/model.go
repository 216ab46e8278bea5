// README: Saved itinerary aggregate and its memories.
package itinerary

import (
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("itinerary not found")
	ErrMemoryNotFound = errors.New("memory not found")
	ErrBadRequest     = errors.New("bad request")
)

// Itinerary is one saved travel plan. Preferences holds the JSON snapshot
// of the inputs the plan was generated from; PlacesData is the JSON array
// of tool payloads collected during generation, nil when the model used no
// tools.
type Itinerary struct {
	ID          string
	UID         string
	Name        string
	Destination string
	Preferences string
	Content     string
	PlacesData  *string
	CreatedAt   time.Time
}

// Memory is a post-trip note attached to an itinerary. The photo travels
// as a base64 string to keep parity with clients that upload inline.
type Memory struct {
	ID          string
	ItineraryID string
	Caption     string
	PhotoBase64 *string
	CreatedAt   time.Time
}
