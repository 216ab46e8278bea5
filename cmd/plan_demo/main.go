package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"googlemaps.github.io/maps"

	"github.com/kentaro1216/okosy/internal/places"
	"github.com/kentaro1216/okosy/internal/planner"
)

// One-shot generation against the real APIs, for poking at prompt and
// tool-call behaviour without the HTTP server.
func main() {
	_ = godotenv.Load()

	openaiKey := os.Getenv("OPENAI_API_KEY")
	placesKey := os.Getenv("GOOGLE_PLACES_API_KEY")
	if openaiKey == "" || placesKey == "" {
		log.Fatal("OPENAI_API_KEY and GOOGLE_PLACES_API_KEY must be set")
	}

	ctx := context.Background()

	mapsClient, err := maps.NewClient(maps.WithAPIKey(placesKey))
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}
	minRating := 4.0
	searcher := places.NewClient(mapsClient, "ja", "JP", &minRating)
	geocoder := places.NewGeocoder(mapsClient, "ja", "JP")

	chat := openai.NewClient(openaiKey)
	p := planner.New(chat, planner.NewToolRegistry(searcher, geocoder), nil, openai.GPT4o).
		WithRand(rand.New(rand.NewSource(1)))

	prefs := planner.PreferenceSet{
		Destination: planner.UndecidedDestination,
		Purpose:     "静かに過ごしたい",
		Companion:   "一人旅",
		Days:        2,
		Budget:      "普通",
		Nature:      4,
		Culture:     5,
		Art:         3,
		Wellness:    4,
		FoodLocal:   "地元の人気店",
		FoodStyle:   []string{"和食"},
		AccomType:   "旅館",
		Words:       []string{"寺社仏閣", "温泉"},

		QuizSeaMountain: planner.AnswerMountain,
		QuizStyle:       planner.AnswerRelaxed,
		QuizAtmosphere:  planner.AnswerTraditional,

		Persona: planner.Personas["ベテラン"],
	}

	res, err := p.Generate(ctx, planner.GenerateRequest{Preferences: prefs})
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	fmt.Printf("Destination: %s\n\n", res.Destination)
	fmt.Println(res.Narrative)
	if res.PlacesData != nil {
		fmt.Printf("\n--- places data ---\n%s\n", *res.PlacesData)
	}
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}
