package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/kentaro1216/okosy/internal/places"
)

// README: Tool registry for the generation session. Every tool call the
// model emits is dispatched here and always answered with a JSON payload,
// including the failure cases, so the transcript stays well formed.

// SearchPlacesTool is the only tool exposed to the model.
const SearchPlacesTool = "search_google_places"

const defaultPlaceType = "tourist_attraction"

var placeTypeEnum = []string{
	"tourist_attraction", "restaurant", "lodging", "cafe", "museum",
	"park", "art_gallery", "shopping_mall", "spa", "amusement_park",
}

type searchPlacesArgs struct {
	Query        string   `json:"query"`
	LocationBias string   `json:"location_bias"`
	PlaceType    string   `json:"place_type"`
	MinRating    *float64 `json:"min_rating"`
	PriceLevels  string   `json:"price_levels"`
}

func (a *searchPlacesArgs) validate() error {
	if a.Query == "" {
		return fmt.Errorf("query is required")
	}
	if a.PlaceType == "" {
		a.PlaceType = defaultPlaceType
	}
	return nil
}

// Searcher runs one place search and reports its outcome.
type Searcher interface {
	Search(ctx context.Context, req places.SearchRequest) places.Outcome
}

// DestinationGeocoder resolves a destination name to coordinates for the
// location-bias fallback. The bool reports whether a location was found.
type DestinationGeocoder interface {
	Geocode(ctx context.Context, address string) (places.LatLng, bool)
}

// ToolRegistry wires tool names to their executors.
type ToolRegistry struct {
	search   Searcher
	geocoder DestinationGeocoder
}

func NewToolRegistry(search Searcher, geocoder DestinationGeocoder) *ToolRegistry {
	return &ToolRegistry{search: search, geocoder: geocoder}
}

// Schema describes the registered tools to the model.
func (r *ToolRegistry) Schema() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        SearchPlacesTool,
				Description: "指定された条件でGoogle Places APIを検索し、場所の情報（名前、住所、評価、価格帯、place_idなど）をJSONで返します。",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"query": {
							Type:        jsonschema.String,
							Description: "検索キーワード（例: '京都 抹茶 カフェ'）",
						},
						"location_bias": {
							Type:        jsonschema.String,
							Description: "検索の中心座標 'lat,lng'。省略時は行き先から自動補完されます。",
						},
						"place_type": {
							Type:        jsonschema.String,
							Description: "検索する場所の種類。",
							Enum:        placeTypeEnum,
						},
						"min_rating": {
							Type:        jsonschema.Number,
							Description: "最低評価（例: 4.0）。",
						},
						"price_levels": {
							Type:        jsonschema.String,
							Description: "許可する価格帯のカンマ区切りリスト（例: '1,2'）。",
						},
					},
					Required: []string{"query", "place_type"},
				},
			},
		},
	}
}

// Dispatch executes one tool call and returns the payload for its
// tool-role reply. Unknown names and malformed arguments come back as
// error payloads rather than failing the session.
func (r *ToolRegistry) Dispatch(ctx context.Context, name, rawArgs, destination string) string {
	if name != SearchPlacesTool {
		log.Printf("planner: model requested unknown tool %q", name)
		return errorPayload(fmt.Sprintf("%s not found", name))
	}

	var args searchPlacesArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		log.Printf("planner: malformed arguments for %s: %v", name, err)
		return errorPayload(fmt.Sprintf("invalid arguments: %v", err))
	}
	if err := args.validate(); err != nil {
		return errorPayload(fmt.Sprintf("invalid arguments: %v", err))
	}

	if args.LocationBias == "" && destination != "" && r.geocoder != nil {
		if loc, ok := r.geocoder.Geocode(ctx, destination); ok {
			args.LocationBias = loc.String()
		}
	}

	out := r.search.Search(ctx, places.SearchRequest{
		Query:        args.Query,
		LocationBias: args.LocationBias,
		PlaceType:    args.PlaceType,
		MinRating:    args.MinRating,
		PriceLevels:  args.PriceLevels,
	})
	return out.JSON()
}

func errorPayload(msg string) string {
	raw, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return string(raw)
}
