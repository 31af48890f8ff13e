// Package handlers exposes the WiFi manager and host information over
// JSON-over-HTTP, mirroring the BLE configuration service.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"linuxbox-finder/internal/sysinfo"
	"linuxbox-finder/internal/wifi"
)

const managerUnavailable = "WiFi manager not initialized"

// WiFiManager is the adapter surface the handlers use.
type WiFiManager interface {
	Status(ctx context.Context) wifi.ConnectionStatus
	Configure(ctx context.Context, ssid, password string) wifi.ConfigOutcome
	ExecuteCommand(ctx context.Context, name string) (string, bool)
}

// Handler serves the finder API. A nil WiFiManager yields degraded
// "not initialized" answers instead of errors.
type Handler struct {
	wifi WiFiManager
	sys  sysinfo.Source
}

// New creates a Handler. Pass a nil manager when initialization failed.
func New(manager WiFiManager, sys sysinfo.Source) *Handler {
	return &Handler{wifi: manager, sys: sys}
}

// ResultResponse is the body of config and command answers.
type ResultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  string `json:"result,omitempty"`
}

// ErrorResponse is the body of 404 and 500 answers.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

// Response helpers
func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, ErrorResponse{Error: message, Code: status})
}

func resultResponse(w http.ResponseWriter, success bool, message string) {
	jsonResponse(w, http.StatusOK, ResultResponse{Success: success, Message: message})
}

// NotFound answers every unknown path and method.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
}

// HealthCheck reports that the listener is up.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "linuxbox-finder",
	})
}
