package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/hsn0918/mdchunk/internal/logger"
)

// maxRequestBody bounds request bodies at 16 MiB; the core targets
// documents well under that.
const maxRequestBody = 16 << 20

func readJSON(r *http.Request, dest interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > maxRequestBody {
		return fmt.Errorf("request body exceeds %d bytes", maxRequestBody)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty request body")
	}
	if err := sonic.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		logger.Get().Error("failed to marshal response", "error", err)
		http.Error(w, `{"error":"internal encoding failure"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Get().Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	writeJSON(w, status, ErrorResponse{Error: fmt.Sprintf(format, args...)})
}
