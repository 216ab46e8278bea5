package places

import "encoding/json"

// Place is a normalized text-search result describing a point of interest.
// PriceLevel is nil when the upstream record carries no price information;
// such records are never dropped by the price filter.
type Place struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Rating     float64  `json:"rating"`
	PriceLevel *int     `json:"price_level"`
	Types      []string `json:"types"`
	PlaceID    string   `json:"place_id"`
}

// OutcomeKind tags the three shapes a search can produce.
type OutcomeKind int

const (
	// OutcomeResults carries one to five qualifying places.
	OutcomeResults OutcomeKind = iota
	// OutcomeEmpty is a well-formed search that matched nothing after filtering.
	OutcomeEmpty
	// OutcomeFailure is an upstream or transport error.
	OutcomeFailure
)

// Outcome is decided once at the producer; consumers switch on Kind instead of
// re-sniffing JSON shapes.
type Outcome struct {
	Kind    OutcomeKind
	Places  []Place
	Message string
	Err     string
}

func ResultsOutcome(places []Place) Outcome {
	return Outcome{Kind: OutcomeResults, Places: places}
}

func EmptyOutcome(message string) Outcome {
	return Outcome{Kind: OutcomeEmpty, Message: message}
}

func FailureOutcome(err string) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err}
}

// JSON renders the outcome in the wire shape the model consumes: a bare array
// for results, {"message": ...} for an empty search, {"error": ...} for a
// failure.
func (o Outcome) JSON() string {
	switch o.Kind {
	case OutcomeResults:
		b, err := json.Marshal(o.Places)
		if err != nil {
			return `{"error":"failed to encode search results"}`
		}
		return string(b)
	case OutcomeEmpty:
		b, _ := json.Marshal(map[string]string{"message": o.Message})
		return string(b)
	default:
		b, _ := json.Marshal(map[string]string{"error": o.Err})
		return string(b)
	}
}

// LatLng is a coordinate pair returned by geocoding.
type LatLng struct {
	Lat float64
	Lng float64
}

// String renders the "lat,lng" form used as a location bias parameter.
func (l LatLng) String() string {
	lat, _ := json.Marshal(l.Lat)
	lng, _ := json.Marshal(l.Lng)
	return string(lat) + "," + string(lng)
}
