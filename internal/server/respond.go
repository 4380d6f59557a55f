package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iksnae/cursor-chat-browser/internal"
)

type errorResp struct {
	Error string `json:"error"`
}

// writeJSON encodes v before writing anything so that an encoding failure
// turns into a 500 instead of a truncated body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		internal.LogError("failed to encode response: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), errorResp{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, internal.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, internal.ErrWorkspaceNotFound), errors.Is(err, internal.ErrConversationNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
