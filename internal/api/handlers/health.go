package handlers

import "net/http"

type HealthHandler struct {
	summarizer  Summarizer
	transcripts TranscriptSource
}

func NewHealthHandler(s Summarizer, t TranscriptSource) *HealthHandler {
	return &HealthHandler{summarizer: s, transcripts: t}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{
		"status":      "ok",
		"model":       h.summarizer.Model(),
		"backend":     "Gemini API",
		"transcriber": h.transcripts.TranscriberName(),
	}, http.StatusOK)
}
