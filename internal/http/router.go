// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kentaro1216/okosy/internal/http/handlers"
	"github.com/kentaro1216/okosy/internal/http/middleware"
	"github.com/kentaro1216/okosy/internal/infra"
)

type RouterDeps struct {
	Verifier  infra.TokenVerifier
	Plan      *handlers.PlanHandler
	Itinerary *handlers.ItineraryHandler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	api.POST("/plan/generate", deps.Plan.Generate)
	api.GET("/plan/draft", deps.Plan.GetDraft)
	api.GET("/plan/personas", deps.Plan.ListPersonas)

	api.POST("/itineraries", deps.Itinerary.Save)
	api.GET("/itineraries", deps.Itinerary.List)
	api.GET("/itineraries/:id", deps.Itinerary.Get)
	api.DELETE("/itineraries/:id", deps.Itinerary.Delete)
	api.POST("/itineraries/:id/memories", deps.Itinerary.AddMemory)
	api.GET("/itineraries/:id/memories", deps.Itinerary.ListMemories)
	api.DELETE("/itineraries/:id/memories/:memory_id", deps.Itinerary.DeleteMemory)

	return r
}
