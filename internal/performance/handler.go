// Package performance is the HTTP surface over the refresh service and the
// KOPIS catalog.
package performance

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stagehub/internal/canonical"
	"stagehub/internal/merge"
	"stagehub/internal/refresh"
	"stagehub/internal/scraper"
	"stagehub/pkg/models"
)

// Lister is the part of refresh.Service the handlers use.
type Lister interface {
	Serve(ctx context.Context, fast bool) (*models.Snapshot, refresh.Origin, error)
	Refresh(ctx context.Context, mode refresh.Mode) (*models.Snapshot, error)
	Status() refresh.Status
	Current() (*models.Snapshot, bool)
}

// Catalog is the KOPIS lookup surface; *scraper.KOPIS satisfies it.
type Catalog interface {
	Search(ctx context.Context, keyword string, today time.Time) ([]models.RawRecord, error)
	Detail(ctx context.Context, id string) (*models.PerformanceDetail, error)
}

type Handler struct {
	Lister   Lister
	Catalog  Catalog // nil when KOPIS is not configured
	Location *time.Location
	Now      func() time.Time
}

func NewHandler(l Lister, catalog Catalog, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{Lister: l, Catalog: catalog, Location: loc, Now: time.Now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/all", h.all)                                 // GET /api/all
	rg.GET("/cache/status", h.cacheStatus)                // GET /api/cache/status
	rg.GET("/search", h.search)                           // GET /api/search?keyword=
	rg.GET("/kopis/performance/:id", h.performanceDetail) // GET /api/kopis/performance/:id
}

// RegisterAdminRoutes expects rg to be behind auth.AuthMiddleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/refresh", h.refresh)
}

func (h *Handler) now() time.Time { return h.Now().In(h.Location) }

func (h *Handler) all(c *gin.Context) {
	fast := c.Query("fast") == "true" || c.Query("skip_selenium") == "true"

	snap, origin, err := h.Lister.Serve(c.Request.Context(), fast)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, refresh.ErrNoSnapshot) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"success": false, "error": "performance list unavailable"})
		return
	}

	data := merge.Select(snap.Performances, merge.Criteria{
		Part:   c.Query("part"),
		Region: c.Query("region"),
	})
	if data == nil {
		data = []models.UnifiedPerformance{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"count":     len(data),
		"timestamp": snap.ComputedAt.Format(models.TimestampLayout),
		"stats":     snap.Stats(),
		"cycle_id":  snap.CycleID,
		"served":    origin,
	})
}

func (h *Handler) cacheStatus(c *gin.Context) {
	st := h.Lister.Status()
	if !st.HasCache {
		c.JSON(http.StatusOK, gin.H{
			"has_cache":         false,
			"last_update":       nil,
			"data_count":        0,
			"cache_age_minutes": nil,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"has_cache":         true,
		"last_update":       st.LastUpdate.Format(models.TimestampLayout),
		"data_count":        st.DataCount,
		"cache_age_minutes": math.Round(st.Age.Minutes()*10) / 10,
		"stats":             st.Stats,
	})
}

type searchItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Venue       string `json:"venue"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Poster      string `json:"poster"`
	Genre       string `json:"genre"`
	Source      string `json:"source"`
	SourceColor string `json:"source_color"`
}

func (h *Handler) search(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "keyword required"})
		return
	}

	now := h.now()
	results := gin.H{
		"keyword":   keyword,
		"kopis":     []searchItem{},
		"cached":    h.searchCached(keyword),
		"timestamp": now.Format(models.TimestampLayout),
	}

	if h.Catalog == nil {
		results["kopis_error"] = scraper.ErrNotConfigured.Error()
	} else if recs, err := h.Catalog.Search(c.Request.Context(), keyword, now); err != nil {
		results["kopis_error"] = err.Error()
	} else {
		items := make([]searchItem, 0, len(recs))
		for _, r := range recs {
			items = append(items, searchItem{
				ID:          r.SourceID,
				Name:        r.Name,
				Venue:       r.Venue,
				StartDate:   r.StartDate,
				EndDate:     r.EndDate,
				Poster:      r.PosterURL,
				Genre:       r.Genre,
				Source:      scraper.KOPISName,
				SourceColor: scraper.KOPISColor,
			})
		}
		results["kopis"] = items
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": results})
}

// searchCached matches the keyword against the published list using the
// same normalization as the merge key. It never triggers a recompute.
func (h *Handler) searchCached(keyword string) []models.UnifiedPerformance {
	out := []models.UnifiedPerformance{}
	key := canonical.Normalize(keyword)
	if key == "" {
		return out
	}
	snap, ok := h.Lister.Current()
	if !ok {
		return out
	}
	for _, p := range snap.Performances {
		if strings.Contains(canonical.Normalize(p.Name), key) {
			out = append(out, p)
		}
	}
	return out
}

func (h *Handler) performanceDetail(c *gin.Context) {
	if h.Catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "kopis not configured"})
		return
	}
	d, err := h.Catalog.Detail(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, scraper.ErrDetailNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
		return
	case errors.Is(err, scraper.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "kopis not configured"})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "kopis lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": d})
}

func (h *Handler) refresh(c *gin.Context) {
	mode := refresh.Mode(c.DefaultQuery("mode", string(refresh.ModeFull)))
	if mode != refresh.ModeFull && mode != refresh.ModeScheduled {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "mode must be full or scheduled"})
		return
	}

	snap, err := h.Lister.Refresh(c.Request.Context(), mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"cycle_id":  snap.CycleID,
		"mode":      snap.Mode,
		"timestamp": snap.ComputedAt.Format(models.TimestampLayout),
		"stats":     snap.Stats(),
	})
}
