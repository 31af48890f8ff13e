package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// CommandRequest is the body of POST /api/system/command.
type CommandRequest struct {
	Command string `json:"command"`
}

// GetSystemInfo returns host, platform and resource information.
// @Summary Get system information
// @Tags System
// @Produce json
// @Success 200 {object} sysinfo.Info
// @Failure 500 {object} ErrorResponse
// @Router /api/system/info [get]
func (h *Handler) GetSystemInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.sys.Collect(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("GetSystemInfo: collection failed")
		errorResponse(w, http.StatusInternalServerError, "failed to collect system info")
		return
	}
	jsonResponse(w, http.StatusOK, info)
}

// PostSystemCommand runs one of the device commands.
// @Summary Execute device command
// @Description restart_wifi, restart_device or factory_reset
// @Tags System
// @Accept json
// @Produce json
// @Param body body CommandRequest true "Command name"
// @Success 200 {object} ResultResponse
// @Router /api/system/command [post]
func (h *Handler) PostSystemCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Debug().Err(err).Msg("invalid command body")
		resultResponse(w, false, invalidJSON)
		return
	}

	if req.Command == "" {
		resultResponse(w, false, "Command is required")
		return
	}

	if h.wifi == nil {
		resultResponse(w, false, managerUnavailable)
		return
	}

	message, ok := h.wifi.ExecuteCommand(r.Context(), req.Command)
	resultResponse(w, ok, message)
}
