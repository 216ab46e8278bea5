package places

import (
	"context"
	"log"

	"googlemaps.github.io/maps"
)

type geocodeClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Geocoder resolves a free-text place name to a coordinate pair. It is only
// ever used opportunistically; callers must not block the primary flow on it.
type Geocoder struct {
	maps     geocodeClient
	language string
	region   string
}

func NewGeocoder(mc *maps.Client, language, region string) *Geocoder {
	return &Geocoder{maps: mc, language: language, region: region}
}

// Geocode returns the best-result coordinates for address, or ok=false on any
// failure (timeout, transport error, zero results).
func (g *Geocoder) Geocode(ctx context.Context, address string) (LatLng, bool) {
	results, err := g.maps.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Language: g.language,
		Region:   g.region,
	})
	if err != nil {
		log.Printf("geocode: lookup for %q failed: %v", address, err)
		return LatLng{}, false
	}
	if len(results) == 0 {
		return LatLng{}, false
	}
	loc := results[0].Geometry.Location
	return LatLng{Lat: loc.Lat, Lng: loc.Lng}, true
}
