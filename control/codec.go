package control

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// maxRequestBodySize bounds JSON request bodies, mirroring the pack's
// own REST surface (flowpbx-flowpbx pushgw.maxRequestBodySize).
const maxRequestBodySize = 1 << 20

// envelope is the uniform REST response shape: exactly one of Data or
// Error is set.
type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// readJSON decodes a JSON request body into dst using sonic rather than
// encoding/json - the control surface is the one place in this module
// that serializes on every request, so the faster codec earns its keep
// (SPEC_FULL.md domain stack: sonic for control/metrics REST payloads).
// Returns a user-facing error string on failure, or "" on success.
func readJSON(r *http.Request, dst any) string {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		return "request body too large or unreadable"
	}
	if err := sonic.Unmarshal(body, dst); err != nil {
		return "invalid request body"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := sonic.Marshal(envelope{Data: data})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	body, err := sonic.Marshal(envelope{Error: msg})
	if err != nil {
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
