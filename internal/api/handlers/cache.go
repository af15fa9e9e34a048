package handlers

import (
	"log"
	"net/http"

	"github.com/video-digest/backend/internal/cache"
)

type CacheHandler struct {
	summaries   cache.Store
	transcripts cache.Store
	backend     string
	policy      cache.Policy
}

func NewCacheHandler(summaries, transcripts cache.Store, backend string, policy cache.Policy) *CacheHandler {
	return &CacheHandler{summaries: summaries, transcripts: transcripts, backend: backend, policy: policy}
}

type cacheStatsResponse struct {
	Summary    cache.Stats `json:"summary"`
	Transcript cache.Stats `json:"transcript"`
	Backend    string      `json:"backend"`
	Policy     string      `json:"policy"`
}

// Stats reports entry counts and capacities of both caches.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	summary, err := cache.StatsOf(r.Context(), h.summaries)
	if err != nil {
		log.Printf("[api] summary cache stats: %v", err)
		jsonError(w, "failed to read cache stats", http.StatusInternalServerError)
		return
	}
	trans, err := cache.StatsOf(r.Context(), h.transcripts)
	if err != nil {
		log.Printf("[api] transcript cache stats: %v", err)
		jsonError(w, "failed to read cache stats", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, cacheStatsResponse{
		Summary:    summary,
		Transcript: trans,
		Backend:    h.backend,
		Policy:     string(h.policy),
	}, http.StatusOK)
}
