package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes caps request bodies; larger bodies are parse failures.
const maxBodyBytes = 64 << 10

var errSSIDRequired = errors.New("SSID is required")

// validateSSID validates a WiFi SSID.
func validateSSID(ssid string) error {
	if ssid == "" {
		return errSSIDRequired
	}
	if len(ssid) > 32 {
		return fmt.Errorf("SSID too long (max 32)")
	}
	if strings.ContainsRune(ssid, 0) {
		return fmt.Errorf("SSID contains null byte")
	}
	return nil
}

// validateWiFiPassword validates an optional WiFi password. Empty means an
// open network; a 64 character hex PSK is the longest accepted form.
func validateWiFiPassword(pw string) error {
	if len(pw) > 64 {
		return fmt.Errorf("WiFi password too long (max 64)")
	}
	if strings.ContainsRune(pw, 0) {
		return fmt.Errorf("password contains null byte")
	}
	return nil
}

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeJSON reads a size-limited body holding exactly one JSON value into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}
