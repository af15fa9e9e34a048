package handlers

import (
	"net/http"
	"strings"
)

// SettingStore persists runtime settings.
type SettingStore interface {
	GetSetting(key, defaultVal string) string
	SetSetting(key, value string) error
}

// settingsKeys defines which keys are allowed and their display metadata
var settingsKeys = []SettingDef{
	{Key: "gemini_model", Label: "Gemini Model", Group: "summarization", Placeholder: "gemini-flash-latest"},
}

type SettingDef struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Group       string `json:"group"`
	Placeholder string `json:"placeholder"`
}

type SettingsHandler struct {
	store SettingStore
}

func NewSettingsHandler(store SettingStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

type settingResponse struct {
	SettingDef
	Value    string `json:"value"`
	HasValue bool   `json:"has_value"`
}

// GetSettings returns every known setting with its stored value.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	result := make([]settingResponse, 0, len(settingsKeys))
	for _, def := range settingsKeys {
		val := h.store.GetSetting(def.Key, "")
		result = append(result, settingResponse{SettingDef: def, Value: val, HasValue: val != ""})
	}
	jsonResponse(w, result, http.StatusOK)
}

// UpdateSettings saves known settings from the request body. An empty value
// clears the setting so the configured default applies again.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if !decodeBody(w, r, &updates) {
		return
	}

	allowed := make(map[string]bool, len(settingsKeys))
	for _, def := range settingsKeys {
		allowed[def.Key] = true
	}

	for key, value := range updates {
		if !allowed[key] {
			jsonError(w, "unknown setting: "+key, http.StatusBadRequest)
			return
		}
		if err := h.store.SetSetting(key, strings.TrimSpace(value)); err != nil {
			jsonError(w, "failed to save setting: "+key, http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
