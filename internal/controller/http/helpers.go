package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/geethamultiplex/theaterfood/internal/model"
)

const maxBodySize = 1 << 20

var errEmptyBody = errors.New("empty request body")

// readBody decodes a JSON request body into T. Kiosk browsers post JSON as
// text/plain to skip the CORS preflight, so that content type is decoded as
// JSON too.
func readBody[T any](r *http.Request) (T, error) {
	var body T

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	if !strings.HasPrefix(contentType, "application/json") && !strings.HasPrefix(contentType, "text/plain") {
		return body, fmt.Errorf("failed to read request body: unsupported content type %s", contentType)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return body, fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	if len(bytes.TrimSpace(bodyBytes)) == 0 {
		return body, errEmptyBody
	}

	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return body, fmt.Errorf("failed to read request body %s: %w", contentType, err)
	}

	return body, nil
}

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	response, err := json.Marshal(data)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(response)
}

func writeError(w http.ResponseWriter, apiErr *model.APIError) {
	writeJSON(w, model.ErrorResponse{
		Message: apiErr.Message,
		Success: false,
	}, apiErr.Code)
}
