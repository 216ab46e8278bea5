package places

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"googlemaps.github.io/maps"
)

// maxResults caps how many qualifying places one search returns. It is a
// fixed page size, not a tunable.
const maxResults = 5

// biasRadiusMeters is applied whenever a location bias is present.
const biasRadiusMeters = 20000

// SearchRequest carries one text search with its client-side filters.
type SearchRequest struct {
	Query string
	// LocationBias is a "lat,lng" pair; empty means no bias.
	LocationBias string
	PlaceType    string
	// MinRating overrides the client default when non-nil.
	MinRating *float64
	// PriceLevels is a comma-separated allow-list of price tiers ("1,2").
	// Records with no price information always pass.
	PriceLevels string
}

// textSearcher is the slice of the maps client the search needs.
type textSearcher interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
}

// Client wraps the Google Places text-search endpoint with language/region
// pinning and the rating/price filters the upstream API does not apply
// atomically.
type Client struct {
	maps      textSearcher
	language  string
	region    string
	minRating *float64
}

// NewClient builds a Client on a shared maps client. defaultMinRating applies
// when a request does not set its own; nil disables the rating filter.
func NewClient(mc *maps.Client, language, region string, defaultMinRating *float64) *Client {
	return &Client{maps: mc, language: language, region: region, minRating: defaultMinRating}
}

// Search runs one text search and returns a tagged outcome. It never returns
// an error: upstream failures become OutcomeFailure so that the caller can
// hand the model a structured payload instead of aborting the generation.
func (c *Client) Search(ctx context.Context, req SearchRequest) Outcome {
	r := &maps.TextSearchRequest{
		Query:    req.Query,
		Language: c.language,
		Region:   c.region,
		Type:     maps.PlaceType(req.PlaceType),
	}
	if req.LocationBias != "" {
		if loc, ok := parseLatLng(req.LocationBias); ok {
			r.Location = &maps.LatLng{Lat: loc.Lat, Lng: loc.Lng}
			r.Radius = biasRadiusMeters
		} else {
			log.Printf("places: ignoring malformed location_bias %q", req.LocationBias)
		}
	}

	resp, err := c.maps.TextSearch(ctx, r)
	if err != nil {
		log.Printf("places: text search failed: %v", err)
		return FailureOutcome(fmt.Sprintf("Google Places API Error: %v", err))
	}

	minRating := c.minRating
	if req.MinRating != nil {
		minRating = req.MinRating
	}
	allowedPrices := parsePriceLevels(req.PriceLevels)

	var out []Place
	for _, result := range resp.Results {
		p := fromSearchResult(result)
		if minRating != nil && p.Rating < *minRating {
			continue
		}
		if allowedPrices != nil && p.PriceLevel != nil && !allowedPrices[*p.PriceLevel] {
			continue
		}
		out = append(out, p)
		if len(out) >= maxResults {
			break
		}
	}

	if len(resp.Results) == 0 {
		return EmptyOutcome("検索条件に合致する場所が見つかりませんでした。")
	}
	if len(out) == 0 {
		return EmptyOutcome("条件に合致する場所が見つかりませんでした。")
	}
	return ResultsOutcome(out)
}

// fromSearchResult flattens a maps SDK record into a Place. The SDK cannot
// distinguish an absent price_level from tier 0, so 0 is treated as absent.
func fromSearchResult(r maps.PlacesSearchResult) Place {
	p := Place{
		Name:    r.Name,
		Address: r.FormattedAddress,
		Rating:  float64(r.Rating),
		Types:   r.Types,
		PlaceID: r.PlaceID,
	}
	if r.PriceLevel > 0 {
		level := r.PriceLevel
		p.PriceLevel = &level
	}
	return p
}

// parsePriceLevels turns "1,2" into a membership set. Returns nil (no filter)
// when the list is empty or contains no valid digits.
func parsePriceLevels(s string) map[int]bool {
	if s == "" {
		return nil
	}
	set := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		set[n] = true
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func parseLatLng(s string) (LatLng, bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return LatLng{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return LatLng{}, false
	}
	return LatLng{Lat: lat, Lng: lng}, true
}
