package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-vendorgate/core"
)

type errorResponse struct {
	Error    string `json:"error"`
	TextCode string `json:"text_code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError relays vendor bodies for VendorRejected and InvalidGrant and
// renders every other error as {error, text_code}.
func writeError(w http.ResponseWriter, err error) {
	if status, body, contentType, ok := core.VendorPayload(err); ok {
		if strings.TrimSpace(contentType) == "" {
			contentType = "application/json; charset=utf-8"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write(body)
		return
	}
	mapped := core.MapError(err)
	status := mapped.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}
	message := mapped.Message
	if mapped.TextCode == core.ErrorInternal {
		message = "An unexpected error occurred"
	}
	writeJSON(w, status, errorResponse{Error: message, TextCode: mapped.TextCode})
}

// decodeJSON reads at most maxBytes. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.BadRequestError("request body is too large", map[string]any{"limit": tooLarge.Limit})
		}
		return core.BadRequestError("request body is not valid json", nil)
	}
	return nil
}
