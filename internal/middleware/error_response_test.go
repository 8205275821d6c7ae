package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/cityportal/internal/model"
)

func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidPageTypeError("abc"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != model.ErrCodeInvalidPageType {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidPageType)
	}
	if body.Category != "validation" || body.Action == "" || body.Message == "" {
		t.Errorf("incomplete body: %+v", body)
	}
}

func TestWriteInternalServerError_ReturnsSystemError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	var body ErrorResponseBody
	json.NewDecoder(w.Body).Decode(&body)
	if w.Code != http.StatusInternalServerError || body.Category != "system" {
		t.Errorf("status/category = %d/%q", w.Code, body.Category)
	}
}

func TestWriteErrorPage(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		status     int
		wantType   string
		wantInBody string
	}{
		{"HTML 403", "/edit_item/1/", http.StatusForbidden, "text/html; charset=utf-8", "Доступ запрещён"},
		{"HTML 404", "/nope/", http.StatusNotFound, "text/html; charset=utf-8", "Страница не найдена"},
		{"HTML 429", "/", http.StatusTooManyRequests, "text/html; charset=utf-8", "Слишком много запросов"},
		{"API 403", "/api/stats/1", http.StatusForbidden, "application/json", model.ErrCodePermissionDenied},
		{"API 500", "/api/stats/1", http.StatusInternalServerError, "application/json", "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrorPage(w, httptest.NewRequest(http.MethodGet, tt.path, nil), tt.status)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", ct, tt.wantType)
			}
			if !strings.Contains(w.Body.String(), tt.wantInBody) {
				t.Errorf("body does not contain %q", tt.wantInBody)
			}
		})
	}
}
