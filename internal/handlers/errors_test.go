package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kidcoins/internal/apperr"
	"kidcoins/internal/logger"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logger.Discard(), apperr.New(apperr.KindInsufficientFunds, "need 5 more coins"))

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", recorder.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "need 5 more coins" || body.Kind != apperr.KindInsufficientFunds {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRespondWithErrorHidesInternalErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.Discard()
	log.SetOutput(&buf)

	recorder := httptest.NewRecorder()
	respondWithError(recorder, log, errors.New("pq: connection refused to 10.0.0.3"))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "10.0.0.3") {
		t.Fatalf("internal details leaked: %q", recorder.Body.String())
	}
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected log to include the error, got %q", buf.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"code":"ABCD1234"}`, false},
		{"empty", ``, true},
		{"malformed", `{"code":`, true},
		{"unknown field", `{"code":"X","extra":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst invitationCodeRequest
			err := decodeJSON(httptest.NewRecorder(), r, &dst)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.SetPathValue("id", tt.value)
			got, err := pathID(r, "id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("pathID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("pathID() = %d, want %d", got, tt.want)
			}
		})
	}
}
