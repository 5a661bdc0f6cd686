package handlers

import "net/http"

func (h *Handlers) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	data := AdminPageData{
		Title:     "Admin Dashboard",
		PageTitle: "Clue Bank",
		ActiveNav: "dashboard",
		SourceURL: h.SourceURL,
	}
	h.render(w, http.StatusOK, h.templates.AdminDashboard, "admin", data)
}

// ==================== Clue Bank ====================

func (h *Handlers) handleGetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Cache.Stats(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, CacheStatsResponse{CacheStats: stats, SourceURL: h.SourceURL})
}

func (h *Handlers) handleClearCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Cache.Clear(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, CacheClearResponse{Removed: removed})
}

func (h *Handlers) handlePruneCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Cache.Prune(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, CacheClearResponse{Removed: removed})
}
