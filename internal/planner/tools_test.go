package planner

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kentaro1216/okosy/internal/places"
)

type stubSearcher struct {
	lastReq places.SearchRequest
	calls   int
	outcome places.Outcome
}

func (s *stubSearcher) Search(_ context.Context, req places.SearchRequest) places.Outcome {
	s.calls++
	s.lastReq = req
	return s.outcome
}

type stubGeocoder struct {
	loc    places.LatLng
	found  bool
	calls  int
	lastIn string
}

func (g *stubGeocoder) Geocode(_ context.Context, address string) (places.LatLng, bool) {
	g.calls++
	g.lastIn = address
	return g.loc, g.found
}

func decodeErrorPayload(t *testing.T, payload string) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		t.Fatalf("payload is not JSON: %q", payload)
	}
	return body["error"]
}

func TestDispatchUnknownTool(t *testing.T) {
	reg := NewToolRegistry(&stubSearcher{}, nil)
	payload := reg.Dispatch(context.Background(), "lookup_weather", "{}", "京都府")
	if got := decodeErrorPayload(t, payload); got != "lookup_weather not found" {
		t.Fatalf("got error %q", got)
	}
}

func TestDispatchMalformedArguments(t *testing.T) {
	search := &stubSearcher{}
	reg := NewToolRegistry(search, nil)
	payload := reg.Dispatch(context.Background(), SearchPlacesTool, `{"query":`, "京都府")
	if got := decodeErrorPayload(t, payload); !strings.Contains(got, "invalid arguments") {
		t.Fatalf("got error %q", got)
	}
	if search.calls != 0 {
		t.Fatalf("search ran on malformed arguments")
	}
}

func TestDispatchMissingQuery(t *testing.T) {
	reg := NewToolRegistry(&stubSearcher{}, nil)
	payload := reg.Dispatch(context.Background(), SearchPlacesTool, `{"place_type":"cafe"}`, "京都府")
	if got := decodeErrorPayload(t, payload); !strings.Contains(got, "query is required") {
		t.Fatalf("got error %q", got)
	}
}

func TestDispatchDefaultsPlaceType(t *testing.T) {
	search := &stubSearcher{outcome: places.EmptyOutcome("なし")}
	reg := NewToolRegistry(search, nil)
	reg.Dispatch(context.Background(), SearchPlacesTool, `{"query":"京都 庭園"}`, "京都府")
	if search.lastReq.PlaceType != "tourist_attraction" {
		t.Fatalf("place type %q, want tourist_attraction", search.lastReq.PlaceType)
	}
}

func TestDispatchGeocodeFallback(t *testing.T) {
	search := &stubSearcher{outcome: places.EmptyOutcome("なし")}
	geo := &stubGeocoder{loc: places.LatLng{Lat: 35.0116, Lng: 135.7681}, found: true}
	reg := NewToolRegistry(search, geo)

	reg.Dispatch(context.Background(), SearchPlacesTool, `{"query":"抹茶 カフェ","place_type":"cafe"}`, "京都府")
	if geo.calls != 1 || geo.lastIn != "京都府" {
		t.Fatalf("geocoder calls=%d address=%q", geo.calls, geo.lastIn)
	}
	if search.lastReq.LocationBias == "" {
		t.Fatalf("location bias was not backfilled")
	}
}

func TestDispatchExplicitBiasSkipsGeocoder(t *testing.T) {
	search := &stubSearcher{outcome: places.EmptyOutcome("なし")}
	geo := &stubGeocoder{found: true}
	reg := NewToolRegistry(search, geo)

	reg.Dispatch(context.Background(), SearchPlacesTool,
		`{"query":"ランチ","place_type":"restaurant","location_bias":"34.7,135.5"}`, "大阪府")
	if geo.calls != 0 {
		t.Fatalf("geocoder called despite explicit bias")
	}
	if search.lastReq.LocationBias != "34.7,135.5" {
		t.Fatalf("bias %q", search.lastReq.LocationBias)
	}
}

func TestDispatchGeocoderMissLeavesBiasEmpty(t *testing.T) {
	search := &stubSearcher{outcome: places.EmptyOutcome("なし")}
	geo := &stubGeocoder{found: false}
	reg := NewToolRegistry(search, geo)

	reg.Dispatch(context.Background(), SearchPlacesTool, `{"query":"宿","place_type":"lodging"}`, "未知の県")
	if search.lastReq.LocationBias != "" {
		t.Fatalf("bias %q, want empty", search.lastReq.LocationBias)
	}
	if search.calls != 1 {
		t.Fatalf("search should still run without bias")
	}
}

func TestDispatchReturnsOutcomeJSON(t *testing.T) {
	search := &stubSearcher{outcome: places.ResultsOutcome([]places.Place{
		{Name: "瓢亭", Address: "京都市左京区", Rating: 4.5, PlaceID: "ChIJtest"},
	})}
	reg := NewToolRegistry(search, nil)

	payload := reg.Dispatch(context.Background(), SearchPlacesTool,
		`{"query":"京都 懐石","place_type":"restaurant","location_bias":"35.0,135.7"}`, "京都府")

	var results []places.Place
	if err := json.Unmarshal([]byte(payload), &results); err != nil {
		t.Fatalf("payload is not a place array: %v", err)
	}
	if len(results) != 1 || results[0].PlaceID != "ChIJtest" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSchemaDescribesSearchTool(t *testing.T) {
	reg := NewToolRegistry(&stubSearcher{}, nil)
	tools := reg.Schema()
	if len(tools) != 1 {
		t.Fatalf("got %d tools, want 1", len(tools))
	}
	fn := tools[0].Function
	if fn.Name != SearchPlacesTool {
		t.Fatalf("tool name %q", fn.Name)
	}
}
