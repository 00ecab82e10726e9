package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorUnwrapping(t *testing.T) {
	err := MissingField("amount", []byte(`{"id":"t"}`))
	if !errors.Is(err, ErrMissingField) {
		t.Error("missing-field error does not unwrap to sentinel")
	}
	if !IsMissingField(err) {
		t.Error("IsMissingField returned false")
	}

	wrapped := fmt.Errorf("fetching transactions: %w", err)
	if !IsMissingField(wrapped) {
		t.Error("wrapping hides the error kind")
	}
}

func TestAppErrorRaw(t *testing.T) {
	raw := []byte(`{"id":"t"}`)
	err := MissingField("amount", raw)
	if got := err.Raw(); string(got) != string(raw) {
		t.Errorf("Raw() = %s, want %s", got, raw)
	}

	var appErr *AppError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &appErr) {
		t.Fatal("errors.As failed on wrapped AppError")
	}
}

func TestTransportDetails(t *testing.T) {
	err := Transport(503, "bad gateway", nil)
	if err.Details["status"] != 503 {
		t.Errorf("status detail = %v", err.Details["status"])
	}
	if Transport(0, "network", nil).Details != nil {
		t.Error("zero status recorded a status detail")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("account"), 404},
		{NoData("transactions"), 404},
		{Credential("rejected", nil), 401},
		{Unauthorized(""), 401},
		{InvalidParameter("start", "not supported"), 400},
		{Transport(500, "boom", nil), 502},
		{MalformedBody("bad", nil, nil), 502},
		{MissingField("id", nil), 502},
		{InvalidField("type", "unknown", nil), 502},
		{Internal("boom", nil), 500},
		{errors.New("plain"), 500},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRawSurvivesDetails(t *testing.T) {
	raw := json.RawMessage(`{"object":"position"}`)
	err := InvalidField("object", "unexpected kind", raw)
	if string(err.Raw()) != string(raw) {
		t.Errorf("Raw() = %s", err.Raw())
	}
	if err.Details["field"] != "object" {
		t.Errorf("field detail = %v", err.Details["field"])
	}
}
