package handlers

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"linuxbox-finder/internal/wifi"
)

const invalidJSON = "Invalid JSON data"

// ConfigRequest is the body of POST /api/wifi/config.
type ConfigRequest struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// GetWiFiStatus returns the connection state of the managed interface.
// @Summary Get WiFi connection status
// @Tags WiFi
// @Produce json
// @Success 200 {object} wifi.ConnectionStatus
// @Router /api/wifi/status [get]
func (h *Handler) GetWiFiStatus(w http.ResponseWriter, r *http.Request) {
	if h.wifi == nil {
		jsonResponse(w, http.StatusOK, wifi.ConnectionStatus{ErrorMessage: managerUnavailable})
		return
	}
	jsonResponse(w, http.StatusOK, h.wifi.Status(r.Context()))
}

// PostWiFiConfig joins the requested network and waits for the result.
// @Summary Configure WiFi
// @Tags WiFi
// @Accept json
// @Produce json
// @Param body body ConfigRequest true "Network credentials"
// @Success 200 {object} ResultResponse
// @Router /api/wifi/config [post]
func (h *Handler) PostWiFiConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Debug().Err(err).Msg("invalid WiFi config body")
		resultResponse(w, false, invalidJSON)
		return
	}

	if err := validateSSID(req.SSID); err != nil {
		resultResponse(w, false, err.Error())
		return
	}
	if err := validateWiFiPassword(req.Password); err != nil {
		resultResponse(w, false, err.Error())
		return
	}

	if h.wifi == nil {
		resultResponse(w, false, managerUnavailable)
		return
	}

	outcome := h.wifi.Configure(r.Context(), req.SSID, req.Password)
	jsonResponse(w, http.StatusOK, ResultResponse{
		Success: outcome.OK(),
		Message: fmt.Sprintf("WiFi configuration result: %d", outcome.Code()),
		Result:  outcome.String(),
	})
}
