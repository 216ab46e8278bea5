// README: Itinerary handler (save, browse, delete, memories).
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kentaro1216/okosy/internal/http/middleware"
	"github.com/kentaro1216/okosy/internal/modules/draft"
	"github.com/kentaro1216/okosy/internal/modules/itinerary"
)

// ItineraryService is the slice of the itinerary module the handler uses.
type ItineraryService interface {
	Save(ctx context.Context, cmd itinerary.SaveCommand) (string, error)
	List(ctx context.Context, uid string) ([]itinerary.Itinerary, error)
	Get(ctx context.Context, uid, id string) (*itinerary.Itinerary, error)
	Delete(ctx context.Context, uid, id string) error
	AddMemory(ctx context.Context, cmd itinerary.AddMemoryCommand) (string, error)
	ListMemories(ctx context.Context, uid, itineraryID string) ([]itinerary.Memory, error)
	DeleteMemory(ctx context.Context, uid, itineraryID, memoryID string) error
}

type ItineraryHandler struct {
	svc    ItineraryService
	drafts DraftStore
}

func NewItineraryHandler(svc ItineraryService, drafts DraftStore) *ItineraryHandler {
	return &ItineraryHandler{svc: svc, drafts: drafts}
}

type saveItineraryReq struct {
	Name        string  `json:"name"`
	FromDraft   bool    `json:"from_draft"`
	Destination string  `json:"destination"`
	Preferences string  `json:"preferences"`
	Content     string  `json:"content"`
	PlacesData  *string `json:"places_data"`
}

type itinerarySummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
}

type itineraryDetail struct {
	itinerarySummary
	Preferences string  `json:"preferences"`
	Content     string  `json:"content"`
	PlacesData  *string `json:"places_data,omitempty"`
}

type memoryResponse struct {
	ID          string    `json:"id"`
	Caption     string    `json:"caption"`
	PhotoBase64 *string   `json:"photo_base64,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Save handles POST /api/itineraries. With from_draft the body only needs
// a name and the rest is taken from the caller's current draft, which is
// cleared once the save goes through.
func (h *ItineraryHandler) Save(c *gin.Context) {
	uid := middleware.CallerUID(c)

	var req saveItineraryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := itinerary.SaveCommand{
		UID:         uid,
		Name:        req.Name,
		Destination: req.Destination,
		Preferences: req.Preferences,
		Content:     req.Content,
		PlacesData:  req.PlacesData,
	}
	if req.FromDraft {
		d, err := h.drafts.Get(c.Request.Context(), uid)
		if errors.Is(err, draft.ErrNotFound) {
			writeError(c, http.StatusBadRequest, "no draft to save")
			return
		}
		if err != nil {
			writeError(c, http.StatusInternalServerError, "internal error")
			return
		}
		cmd.Destination = d.Destination
		cmd.Preferences = d.Preferences
		cmd.Content = d.Content
		cmd.PlacesData = d.PlacesData
	}

	id, err := h.svc.Save(c.Request.Context(), cmd)
	if err != nil {
		writeItineraryError(c, err)
		return
	}
	if req.FromDraft {
		if err := h.drafts.Clear(c.Request.Context(), uid); err != nil {
			// The itinerary is already saved; a stale draft is harmless.
			writeJSON(c, http.StatusCreated, gin.H{"id": id})
			return
		}
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": id})
}

// List handles GET /api/itineraries.
func (h *ItineraryHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), middleware.CallerUID(c))
	if err != nil {
		writeItineraryError(c, err)
		return
	}
	out := make([]itinerarySummary, 0, len(items))
	for _, it := range items {
		out = append(out, itinerarySummary{
			ID: it.ID, Name: it.Name, Destination: it.Destination, CreatedAt: it.CreatedAt,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"itineraries": out})
}

// Get handles GET /api/itineraries/:id.
func (h *ItineraryHandler) Get(c *gin.Context) {
	it, err := h.svc.Get(c.Request.Context(), middleware.CallerUID(c), c.Param("id"))
	if err != nil {
		writeItineraryError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, itineraryDetail{
		itinerarySummary: itinerarySummary{
			ID: it.ID, Name: it.Name, Destination: it.Destination, CreatedAt: it.CreatedAt,
		},
		Preferences: it.Preferences,
		Content:     it.Content,
		PlacesData:  it.PlacesData,
	})
}

// Delete handles DELETE /api/itineraries/:id.
func (h *ItineraryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CallerUID(c), c.Param("id")); err != nil {
		writeItineraryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addMemoryReq struct {
	Caption     string  `json:"caption"`
	PhotoBase64 *string `json:"photo_base64"`
}

// AddMemory handles POST /api/itineraries/:id/memories.
func (h *ItineraryHandler) AddMemory(c *gin.Context) {
	var req addMemoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.svc.AddMemory(c.Request.Context(), itinerary.AddMemoryCommand{
		UID:         middleware.CallerUID(c),
		ItineraryID: c.Param("id"),
		Caption:     req.Caption,
		PhotoBase64: req.PhotoBase64,
	})
	if err != nil {
		writeItineraryError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": id})
}

// ListMemories handles GET /api/itineraries/:id/memories.
func (h *ItineraryHandler) ListMemories(c *gin.Context) {
	memories, err := h.svc.ListMemories(c.Request.Context(), middleware.CallerUID(c), c.Param("id"))
	if err != nil {
		writeItineraryError(c, err)
		return
	}
	out := make([]memoryResponse, 0, len(memories))
	for _, m := range memories {
		out = append(out, memoryResponse{
			ID: m.ID, Caption: m.Caption, PhotoBase64: m.PhotoBase64, CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"memories": out})
}

// DeleteMemory handles DELETE /api/itineraries/:id/memories/:memory_id.
func (h *ItineraryHandler) DeleteMemory(c *gin.Context) {
	err := h.svc.DeleteMemory(c.Request.Context(), middleware.CallerUID(c), c.Param("id"), c.Param("memory_id"))
	if err != nil {
		writeItineraryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
