package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "slotkeeper/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantSide   string
	}{
		{"slot taken", apperrors.SlotNoLongerAvailable("p1", "Morning"), http.StatusConflict, apperrors.CodeSlotNoLongerAvailable, ""},
		{"crm write", apperrors.CRMWriteFailed(errors.New("502")), http.StatusBadGateway, apperrors.CodeCRMWriteFailed, "crm"},
		{"plain error", errors.New("mongo exploded"), http.StatusInternalServerError, apperrors.CodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("WriteError() error = %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
			}
			if resp.Side != tt.wantSide {
				t.Errorf("side = %q, want %q", resp.Side, tt.wantSide)
			}
			if strings.Contains(rec.Body.String(), "mongo exploded") {
				t.Errorf("internal cause leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestIfMatchVersion(t *testing.T) {
	tests := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{`"12"`, 12, false},
		{`W/"3"`, 3, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPut, "/api/v1/personnel/p1", nil)
		if tt.header != "" {
			r.Header.Set("If-Match", tt.header)
		}
		got, err := IfMatchVersion(r)
		if (err != nil) != tt.wantErr {
			t.Errorf("IfMatchVersion(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("IfMatchVersion(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}
