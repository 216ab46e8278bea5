// README: Entry point; loads config, wires clients and services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"googlemaps.github.io/maps"

	"github.com/kentaro1216/okosy/internal/config"
	httptransport "github.com/kentaro1216/okosy/internal/http"
	"github.com/kentaro1216/okosy/internal/http/handlers"
	"github.com/kentaro1216/okosy/internal/infra"
	"github.com/kentaro1216/okosy/internal/modules/draft"
	"github.com/kentaro1216/okosy/internal/modules/itinerary"
	"github.com/kentaro1216/okosy/internal/places"
	"github.com/kentaro1216/okosy/internal/planner"
	"github.com/kentaro1216/okosy/internal/vision"
)

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("OKOSY_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	mapsClient, err := maps.NewClient(maps.WithAPIKey(cfg.Places.APIKey))
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}
	searcher := places.NewClient(mapsClient, cfg.Places.Language, cfg.Places.Region, cfg.Places.MinRating)
	geocoder := places.NewGeocoder(mapsClient, cfg.Places.Language, cfg.Places.Region)

	var labels planner.Labeler
	if cfg.Vision.CredentialsFile != "" {
		labelClient, err := vision.NewLabelClient(ctx, cfg.Vision.CredentialsFile)
		if err != nil {
			log.Fatalf("vision init: %v", err)
		}
		labels = labelClient
	} else {
		log.Printf("GOOGLE_APPLICATION_CREDENTIALS not set; image labels disabled")
	}

	chat := openai.NewClient(cfg.OpenAI.APIKey)
	registry := planner.NewToolRegistry(searcher, geocoder)
	plannerSvc := planner.New(chat, registry, labels, cfg.OpenAI.Model)

	itinerarySvc := itinerary.NewService(itinerary.NewStore(dbPool))
	draftStore := draft.NewStore(redisClient)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Verifier:  verifier,
		Plan:      handlers.NewPlanHandler(plannerSvc, draftStore),
		Itinerary: handlers.NewItineraryHandler(itinerarySvc, draftStore),
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
