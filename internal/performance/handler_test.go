package performance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"stagehub/internal/refresh"
	"stagehub/internal/scraper"
	"stagehub/pkg/models"
)

var kst = time.FixedZone("KST", 9*60*60)

type fakeLister struct {
	snap      *models.Snapshot
	origin    refresh.Origin
	serveErr  error
	lastFast  bool
	refreshed []refresh.Mode
}

func (f *fakeLister) Serve(_ context.Context, fast bool) (*models.Snapshot, refresh.Origin, error) {
	f.lastFast = fast
	if f.serveErr != nil {
		return nil, "", f.serveErr
	}
	return f.snap, f.origin, nil
}

func (f *fakeLister) Refresh(_ context.Context, mode refresh.Mode) (*models.Snapshot, error) {
	f.refreshed = append(f.refreshed, mode)
	if f.serveErr != nil {
		return nil, f.serveErr
	}
	return f.snap, nil
}

func (f *fakeLister) Status() refresh.Status {
	if f.snap == nil {
		return refresh.Status{}
	}
	return refresh.Status{
		HasCache:   true,
		LastUpdate: f.snap.ComputedAt,
		DataCount:  f.snap.Total(),
		Age:        90 * time.Second,
		Stats:      f.snap.Stats(),
	}
}

func (f *fakeLister) Current() (*models.Snapshot, bool) { return f.snap, f.snap != nil }

type fakeCatalog struct {
	records []models.RawRecord
	err     error
	detail  *models.PerformanceDetail
}

func (f *fakeCatalog) Search(context.Context, string, time.Time) ([]models.RawRecord, error) {
	return f.records, f.err
}

func (f *fakeCatalog) Detail(_ context.Context, id string) (*models.PerformanceDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.detail == nil || f.detail.ID != id {
		return nil, scraper.ErrDetailNotFound
	}
	return f.detail, nil
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		CycleID: "c1",
		Mode:    "scheduled",
		Performances: []models.UnifiedPerformance{
			{Name: "아이유 콘서트", Part: models.PartConcert, Region: models.RegionSeoul},
			{Name: "뮤지컬 시카고", Part: models.PartTheater, Region: models.RegionSeoul},
			{Name: "부산 락 페스티벌", Part: models.PartConcert, Region: models.RegionGyeongsang},
		},
		ComputedAt:   time.Date(2026, 10, 17, 12, 0, 0, 0, kst),
		SourceCounts: map[string]int{"KOPIS": 2, "인터파크": 1},
	}
}

func newRouter(l Lister, c Catalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(l, c, kst)
	h.Now = func() time.Time { return time.Date(2026, 10, 17, 12, 30, 0, 0, kst) }
	h.RegisterRoutes(r.Group("/api"))
	h.RegisterAdminRoutes(r.Group("/admin"))
	return r
}

func do(t *testing.T, r http.Handler, method, target string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s %s: invalid json %q", method, target, w.Body.String())
	}
	return w.Code, body
}

func TestAll(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantFast  bool
		wantCount int
	}{
		{name: "everything", wantCount: 3},
		{name: "fast flag", query: url.Values{"fast": {"true"}}, wantFast: true, wantCount: 3},
		{name: "legacy flag", query: url.Values{"skip_selenium": {"true"}}, wantFast: true, wantCount: 3},
		{name: "by part", query: url.Values{"part": {"concert"}}, wantCount: 2},
		{name: "by part and region", query: url.Values{"part": {"concert"}, "region": {string(models.RegionSeoul)}}, wantCount: 1},
		{name: "all means no filter", query: url.Values{"part": {"all"}, "region": {"all"}}, wantCount: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLister{snap: sampleSnapshot(), origin: refresh.OriginCache}
			code, body := do(t, newRouter(l, nil), http.MethodGet, "/api/all?"+tt.query.Encode())
			if code != http.StatusOK {
				t.Fatalf("status = %d", code)
			}
			if l.lastFast != tt.wantFast {
				t.Errorf("fast = %v, want %v", l.lastFast, tt.wantFast)
			}
			if got := len(body["data"].([]any)); got != tt.wantCount {
				t.Errorf("count = %d, want %d", got, tt.wantCount)
			}
			stats := body["stats"].(map[string]any)
			if stats["total"] != float64(3) || stats["KOPIS"] != float64(2) {
				t.Errorf("stats = %v", stats)
			}
			if body["timestamp"] != "2026-10-17 12:00:00" || body["served"] != "fresh" {
				t.Errorf("meta = %v %v", body["timestamp"], body["served"])
			}
		})
	}
}

func TestAllUnavailable(t *testing.T) {
	l := &fakeLister{serveErr: fmt.Errorf("%w: boom", refresh.ErrNoSnapshot)}
	code, body := do(t, newRouter(l, nil), http.MethodGet, "/api/all")
	if code != http.StatusServiceUnavailable || body["success"] != false {
		t.Fatalf("status = %d body = %v", code, body)
	}
}

func TestCacheStatus(t *testing.T) {
	code, body := do(t, newRouter(&fakeLister{}, nil), http.MethodGet, "/api/cache/status")
	if code != http.StatusOK || body["has_cache"] != false || body["last_update"] != nil {
		t.Fatalf("empty status = %v", body)
	}

	code, body = do(t, newRouter(&fakeLister{snap: sampleSnapshot()}, nil), http.MethodGet, "/api/cache/status")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["has_cache"] != true || body["data_count"] != float64(3) || body["cache_age_minutes"] != 1.5 {
		t.Errorf("status = %v", body)
	}
	if body["last_update"] != "2026-10-17 12:00:00" {
		t.Errorf("last_update = %v", body["last_update"])
	}
}

func TestSearch(t *testing.T) {
	cat := &fakeCatalog{records: []models.RawRecord{{SourceID: "PF1", Name: "아이유 콘서트", Venue: "KSPO DOME"}}}
	r := newRouter(&fakeLister{snap: sampleSnapshot()}, cat)

	code, _ := do(t, r, http.MethodGet, "/api/search")
	if code != http.StatusBadRequest {
		t.Errorf("missing keyword status = %d", code)
	}

	code, body := do(t, r, http.MethodGet, "/api/search?keyword="+url.QueryEscape("아이유"))
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	data := body["data"].(map[string]any)
	kopis := data["kopis"].([]any)
	if len(kopis) != 1 || kopis[0].(map[string]any)["id"] != "PF1" || kopis[0].(map[string]any)["source"] != "KOPIS" {
		t.Errorf("kopis = %v", kopis)
	}
	if cached := data["cached"].([]any); len(cached) != 1 {
		t.Errorf("cached = %v", cached)
	}

	cat.err = errors.New("timeout")
	_, body = do(t, r, http.MethodGet, "/api/search?keyword=x")
	if body["success"] != true || body["data"].(map[string]any)["kopis_error"] != "timeout" {
		t.Errorf("search with failing catalog = %v", body)
	}
}

func TestPerformanceDetail(t *testing.T) {
	cat := &fakeCatalog{detail: &models.PerformanceDetail{
		ID:           "PF1",
		Name:         "뮤지컬 시카고",
		BookingLinks: []models.BookingLink{{Name: "인터파크", URL: "https://tickets.interpark.com/goods/1", Color: "#ff6464"}},
	}}
	r := newRouter(&fakeLister{}, cat)

	code, body := do(t, r, http.MethodGet, "/api/kopis/performance/PF1")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	data := body["data"].(map[string]any)
	if data["name"] != "뮤지컬 시카고" || len(data["booking_sites"].([]any)) != 1 {
		t.Errorf("detail = %v", data)
	}

	if code, _ := do(t, r, http.MethodGet, "/api/kopis/performance/PF404"); code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", code)
	}
	if code, _ := do(t, newRouter(&fakeLister{}, nil), http.MethodGet, "/api/kopis/performance/PF1"); code != http.StatusServiceUnavailable {
		t.Errorf("no catalog status = %d", code)
	}
	cat.err = errors.New("status 500")
	if code, _ := do(t, r, http.MethodGet, "/api/kopis/performance/PF1"); code != http.StatusBadGateway {
		t.Errorf("upstream failure status = %d", code)
	}
}

func TestAdminRefresh(t *testing.T) {
	l := &fakeLister{snap: sampleSnapshot()}
	r := newRouter(l, nil)

	code, body := do(t, r, http.MethodPost, "/admin/refresh")
	if code != http.StatusOK || body["cycle_id"] != "c1" {
		t.Fatalf("status = %d body = %v", code, body)
	}
	if code, _ := do(t, r, http.MethodPost, "/admin/refresh?mode=scheduled"); code != http.StatusOK {
		t.Errorf("scheduled status = %d", code)
	}
	if code, _ := do(t, r, http.MethodPost, "/admin/refresh?mode=weekly"); code != http.StatusBadRequest {
		t.Errorf("bad mode status = %d", code)
	}
	if len(l.refreshed) != 2 || l.refreshed[0] != refresh.ModeFull || l.refreshed[1] != refresh.ModeScheduled {
		t.Errorf("refreshed = %v", l.refreshed)
	}
}
