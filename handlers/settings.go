package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"lifeboard/config"
	"lifeboard/services/metadata"
)

type SettingsHandler struct {
	Manager         *config.Manager
	MetadataService *metadata.Service
}

func NewSettingsHandler(m *config.Manager) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

// SetMetadataService sets the metadata service for hot reloading API keys.
func (h *SettingsHandler) SetMetadataService(ms *metadata.Service) {
	h.MetadataService = ms
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Load()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	previous, err := h.Manager.Load()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := h.Manager.Save(s); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Hot-reload provider credentials so a key change takes effect without
	// a restart.
	if h.MetadataService != nil &&
		(previous.Metadata.TMDBAPIKey != s.Metadata.TMDBAPIKey ||
			previous.Metadata.Language != s.Metadata.Language) {
		log.Printf("[settings] metadata credentials changed, reloading provider client")
		h.MetadataService.UpdateAPIKey(s.Metadata.TMDBAPIKey, s.Metadata.Language)
	}

	writeJSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
