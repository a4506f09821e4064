package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/Amoghsy/CampoBite/internal/domain/analytics"
)

// getDashboard serves the aggregated metrics for the admin dashboard.
// Responses are cached briefly in Redis keyed by range and anchor date;
// the dashboard polls, so a few seconds of staleness is acceptable.
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	rng, err := analytics.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	anchor := time.Now()
	if date := r.URL.Query().Get("date"); date != "" {
		anchor, err = time.ParseInLocation(time.DateOnly, date, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	cacheKey := "dashboard:" + string(rng) + ":" + anchor.Format(time.DateOnly)
	if cached, ok := h.cachedDashboard(r, cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	d, err := h.dashboard.Dashboard(r.Context(), rng, anchor)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	h.storeDashboard(r, cacheKey, d)
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) cachedDashboard(r *http.Request, key string) ([]byte, bool) {
	if h.cache == nil || h.cfg.DashboardCacheTTL <= 0 {
		return nil, false
	}
	cached, err := h.cache.Get(r.Context(), key).Bytes()
	if err != nil {
		return nil, false
	}
	return cached, true
}

// storeDashboard caches best-effort; a cache failure never fails the
// request.
func (h *Handler) storeDashboard(r *http.Request, key string, d *analytics.Dashboard) {
	if h.cache == nil || h.cfg.DashboardCacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := h.cache.Set(r.Context(), key, payload, h.cfg.DashboardCacheTTL).Err(); err != nil {
		zctx.From(r.Context()).Warn("dashboard cache write failed", zap.Error(err))
	}
}

type menuItemResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category,omitempty"`
	Price           int64  `json:"price"`
	Available       bool   `json:"available"`
	PreparationTime int    `json:"preparationTime,omitempty"`
	StockQuantity   int    `json:"stockQuantity"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListAvailable(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, it := range items {
		resp[i] = menuItemResponse{
			ID:              it.ID,
			Name:            it.Name,
			Description:     it.Description,
			Category:        it.Category,
			Price:           it.Price,
			Available:       it.Available,
			PreparationTime: it.PreparationTime,
			StockQuantity:   it.StockQuantity,
			ImageURL:        it.ImageURL,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
