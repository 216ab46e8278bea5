// README: Plan handler. Runs a generation and parks the result as the
// caller's draft until it is saved or regenerated.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kentaro1216/okosy/internal/http/middleware"
	"github.com/kentaro1216/okosy/internal/modules/draft"
	"github.com/kentaro1216/okosy/internal/planner"
)

const (
	maxImages     = 3
	maxImageBytes = 4 << 20

	generateTimeout = 120 * time.Second
)

// Generator runs one itinerary generation.
type Generator interface {
	Generate(ctx context.Context, req planner.GenerateRequest) (planner.Result, error)
}

// DraftStore holds the caller's latest unsaved generation.
type DraftStore interface {
	Save(ctx context.Context, uid string, d draft.Draft) error
	Get(ctx context.Context, uid string) (draft.Draft, error)
	Clear(ctx context.Context, uid string) error
}

type PlanHandler struct {
	gen    Generator
	drafts DraftStore
}

func NewPlanHandler(gen Generator, drafts DraftStore) *PlanHandler {
	return &PlanHandler{gen: gen, drafts: drafts}
}

type generateResponse struct {
	Destination string   `json:"destination"`
	Content     string   `json:"content"`
	PlacesData  *string  `json:"places_data,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Generate handles POST /api/plan/generate. The body is either plain JSON
// with the preference set, or multipart with a "request" JSON field plus up
// to maxImages "images" files.
func (h *PlanHandler) Generate(c *gin.Context) {
	uid := middleware.CallerUID(c)

	prefs, images, ok := h.readRequest(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), generateTimeout)
	defer cancel()

	res, err := h.gen.Generate(ctx, planner.GenerateRequest{Preferences: prefs, Images: images})
	if err != nil {
		writePlanError(c, err)
		return
	}

	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		prefsJSON = []byte("{}")
	}
	if err := h.drafts.Save(ctx, uid, draft.Draft{
		Destination: res.Destination,
		Preferences: string(prefsJSON),
		Content:     res.Narrative,
		PlacesData:  res.PlacesData,
		Warnings:    res.Warnings,
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		// The generation itself succeeded; losing the draft only costs
		// the user a regenerate.
		log.Printf("plan: saving draft for %s failed: %v", uid, err)
	}

	writeJSON(c, http.StatusOK, generateResponse{
		Destination: res.Destination,
		Content:     res.Narrative,
		PlacesData:  res.PlacesData,
		Warnings:    res.Warnings,
	})
}

// GetDraft handles GET /api/plan/draft.
func (h *PlanHandler) GetDraft(c *gin.Context) {
	d, err := h.drafts.Get(c.Request.Context(), middleware.CallerUID(c))
	if errors.Is(err, draft.ErrNotFound) {
		writeError(c, http.StatusNotFound, "no draft")
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, d)
}

// ListPersonas handles GET /api/plan/personas.
func (h *PlanHandler) ListPersonas(c *gin.Context) {
	names := make([]string, 0, len(Personas()))
	for _, p := range Personas() {
		names = append(names, p.Name)
	}
	writeJSON(c, http.StatusOK, gin.H{"personas": names})
}

// Personas returns the selectable personas in a stable order.
func Personas() []planner.Persona {
	return []planner.Persona{
		planner.Personas["ベテラン"],
		planner.Personas["姉さん"],
		planner.Personas["ギャル"],
		planner.Personas["王子"],
	}
}

func (h *PlanHandler) readRequest(c *gin.Context) (planner.PreferenceSet, [][]byte, bool) {
	var prefs planner.PreferenceSet

	contentType := c.GetHeader("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		if err := c.ShouldBindJSON(&prefs); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return prefs, nil, false
		}
		return prefs, nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid multipart form")
		return prefs, nil, false
	}
	raw := form.Value["request"]
	if len(raw) == 0 {
		writeError(c, http.StatusBadRequest, "missing request field")
		return prefs, nil, false
	}
	if err := json.Unmarshal([]byte(raw[0]), &prefs); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request field")
		return prefs, nil, false
	}

	files := form.File["images"]
	if len(files) > maxImages {
		writeError(c, http.StatusBadRequest, "too many images")
		return prefs, nil, false
	}
	var images [][]byte
	for _, fh := range files {
		if fh.Size > maxImageBytes {
			writeError(c, http.StatusBadRequest, "image too large")
			return prefs, nil, false
		}
		f, err := fh.Open()
		if err != nil {
			writeError(c, http.StatusBadRequest, "unreadable image")
			return prefs, nil, false
		}
		data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
		f.Close()
		if err != nil {
			writeError(c, http.StatusBadRequest, "unreadable image")
			return prefs, nil, false
		}
		images = append(images, data)
	}
	return prefs, images, true
}
