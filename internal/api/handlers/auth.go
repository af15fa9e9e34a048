package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/video-digest/backend/internal/api/middleware"
	"github.com/video-digest/backend/internal/auth"
)

type AuthHandler struct {
	jwt     *auth.JWTService
	keyHash string
}

func NewAuthHandler(jwt *auth.JWTService, clientKeyHash string) *AuthHandler {
	return &AuthHandler{jwt: jwt, keyHash: clientKeyHash}
}

type tokenRequest struct {
	ClientKey string `json:"client_key"`
	Client    string `json:"client"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// Token exchanges the shared client key for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if !h.jwt.Enabled() {
		jsonError(w, "authentication is disabled", http.StatusNotFound)
		return
	}

	var req tokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !auth.CheckClientKey(req.ClientKey, h.keyHash) {
		jsonError(w, "invalid client key", http.StatusUnauthorized)
		return
	}

	client := strings.TrimSpace(req.Client)
	if client == "" {
		client = "client"
	}
	token, err := h.jwt.GenerateToken(client)
	if err != nil {
		jsonError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, tokenResponse{Token: token, ExpiresIn: int(auth.TokenTTL.Seconds())}, http.StatusOK)
}

// Me reports the client behind the current token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	jsonResponse(w, map[string]interface{}{
		"client":     claims.Client,
		"expires_at": claims.ExpiresAt.Time,
	}, http.StatusOK)
}

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
