package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"kidcoins/internal/apperr"

	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind,omitempty"`
}

// respondWithError writes err as a JSON body with the status of its kind.
// Server-side failures are logged; their details never reach the client.
func respondWithError(w http.ResponseWriter, log *logrus.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("kind", kind).Error("request failed")
	}
	respondJSON(w, status, errorResponse{Error: apperr.Message(err), Kind: kind})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON reads a single JSON object into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Wrap(apperr.KindValidation, err, ErrInvalidRequestBody)
	}
	return nil
}

// pathID parses a positive integer path value
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s: %s", ErrInvalidID, name)
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter
func queryID(r *http.Request, name string) (int64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, apperr.Validation("%s: %s", ErrInvalidID, name)
	}
	return id, true, nil
}
