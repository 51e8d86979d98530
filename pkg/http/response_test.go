package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "fixify/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", apperrors.NotFoundWithID("Booking", "abc"), http.StatusNotFound, apperrors.CodeNotFound, "Booking not found"},
		{"forbidden", apperrors.Forbidden("Only provider can confirm booking"), http.StatusForbidden, apperrors.CodeForbidden, "Only provider can confirm booking"},
		{"conflict", apperrors.Conflict("Cannot cancel completed booking"), http.StatusConflict, apperrors.CodeConflict, "Cannot cancel completed booking"},
		{"validation", apperrors.Validation("bad", nil), http.StatusUnprocessableEntity, apperrors.CodeValidation, "bad"},
		{"unauthorized", apperrors.Unauthorized("Not authorized"), http.StatusUnauthorized, apperrors.CodeUnauthorized, "Not authorized"},
		{"plain error", errors.New("mongo exploded"), http.StatusInternalServerError, apperrors.CodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteError(w, tt.err); err != nil {
				t.Fatalf("WriteError() returned %v", err)
			}

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
			if resp.Error != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, resp.Error)
			}
		})
	}
}

func TestWriteError_InternalHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := apperrors.Internal("Failed to update booking", errors.New("secret driver detail")).
		WithDetails(map[string]any{"query": "db.bookings"})

	_ = WriteError(w, err)

	if strings.Contains(w.Body.String(), "db.bookings") {
		t.Errorf("internal error details must not be rendered: %s", w.Body.String())
	}
}

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{"defaults", "", 10, 0, false},
		{"explicit", "?limit=20&offset=40", 20, 40, false},
		{"limit capped", "?limit=5000", 100, 0, false},
		{"negative offset", "?offset=-3", 10, 0, false},
		{"bad limit", "?limit=abc", 0, 0, true},
		{"bad offset", "?offset=xyz", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(r)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
					t.Fatalf("expected invalid input error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Status string `json:"status"`
	}

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"confirmed"}`))
		var p payload
		if err := DecodeJSON(r, &p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != "confirmed" {
			t.Errorf("expected confirmed, got %s", p.Status)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(""))
		var p payload
		if err := DecodeJSON(r, &p); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":`))
		var p payload
		if err := DecodeJSON(r, &p); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})

	t.Run("trailing data", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"a"} {"status":"b"}`))
		var p payload
		if err := DecodeJSON(r, &p); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
}
