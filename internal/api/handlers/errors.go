package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/video-digest/backend/internal/extract"
	"github.com/video-digest/backend/internal/llm"
	"github.com/video-digest/backend/internal/summarize"
	"github.com/video-digest/backend/internal/transcript"
)

// decodeBody reads a JSON request body into v, writing a 400 (or 413 for an
// oversized body) and returning false when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	jsonError(w, "invalid request body", http.StatusBadRequest)
	return false
}

// errorStatus maps pipeline failures to HTTP status codes.
func errorStatus(err error) int {
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, summarize.ErrInvalidInput),
		errors.Is(err, extract.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, transcript.ErrDurationExceeded),
		errors.Is(err, transcript.ErrTranscriptTooShort),
		errors.Is(err, transcript.ErrEmptyAudioTrack),
		errors.Is(err, extract.ErrNoContent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extract.ErrFetchTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, transcript.ErrMetadataUnavailable),
		errors.Is(err, transcript.ErrDownloadFailed),
		errors.Is(err, transcript.ErrCaptionFetchFailed),
		errors.Is(err, extract.ErrFetchFailed),
		errors.Is(err, llm.ErrEmptyResponse),
		errors.Is(err, llm.ErrBlocked),
		errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeFailure(w http.ResponseWriter, route string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[api] %s failed: %v", route, err)
	}
	jsonError(w, err.Error(), status)
}
