package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	medicinedomain "github.com/ghuser/medshelf/services/medicine/domain"
)

func TestWriteError_StatusAndMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		production bool
		wantStatus int
		wantMsg    string
	}{
		{"not found", medicinedomain.ErrMedicineNotFound, false, http.StatusNotFound, "Not found"},
		{"wrapped not found", fmt.Errorf("get medicine: %w", medicinedomain.ErrMedicineNotFound), false, http.StatusNotFound, "Not found"},
		{"validation error", medicinedomain.Invalid("name", "name is required"), false, http.StatusBadRequest, "name is required"},
		{"wrapped validation error", fmt.Errorf("create medicine: %w", medicinedomain.Invalid("quantity", "quantity must be a non-negative integer")), true, http.StatusBadRequest, "quantity must be a non-negative integer"},
		{"bare invalid sentinel", fmt.Errorf("%w: bad row", medicinedomain.ErrInvalidMedicine), false, http.StatusBadRequest, "invalid medicine: bad row"},
		{"no fields to update", medicinedomain.ErrNoFieldsToUpdate, false, http.StatusBadRequest, "no fields to update"},
		{"store failure in dev", errors.New("db down"), false, http.StatusInternalServerError, "db down"},
		{"store failure in production", fmt.Errorf("query: %w", errors.New("db down")), true, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			got := WriteError(w, tt.err, tt.production)

			if got != tt.wantStatus || w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got returned=%d written=%d", tt.wantStatus, got, w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("response body is not valid JSON: %v", err)
			}
			if body["error"] != tt.wantMsg {
				t.Errorf("error: got %q, want %q", body["error"], tt.wantMsg)
			}
		})
	}
}

func TestWriteError_ContentType(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, medicinedomain.ErrMedicineNotFound, false)

	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("unexpected Content-Type: %q", ct)
	}
}
