package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotkeeper/internal/booking/service"
	apperrors "slotkeeper/pkg/errors"
	httputil "slotkeeper/pkg/http"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
)

type mockBookingService struct {
	availabilityFunc func(ctx context.Context, req model.AvailabilityRequest) (*service.AvailabilityResponse, error)
	bookFunc         func(ctx context.Context, req model.BookRequest) (*model.Booking, error)
	rescheduleFunc   func(ctx context.Context, req model.RescheduleRequest) (*model.Booking, error)
	cancelFunc       func(ctx context.Context, req model.CancelRequest) (*model.Booking, error)
}

func (m *mockBookingService) Availability(ctx context.Context, req model.AvailabilityRequest) (*service.AvailabilityResponse, error) {
	return m.availabilityFunc(ctx, req)
}

func (m *mockBookingService) Book(ctx context.Context, req model.BookRequest) (*model.Booking, error) {
	return m.bookFunc(ctx, req)
}

func (m *mockBookingService) Reschedule(ctx context.Context, req model.RescheduleRequest) (*model.Booking, error) {
	return m.rescheduleFunc(ctx, req)
}

func (m *mockBookingService) Cancel(ctx context.Context, req model.CancelRequest) (*model.Booking, error) {
	return m.cancelFunc(ctx, req)
}

func newBookingRouter(svc service.BookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestBookingHandler_Availability(t *testing.T) {
	var got model.AvailabilityRequest
	svc := &mockBookingService{
		availabilityFunc: func(ctx context.Context, req model.AvailabilityRequest) (*service.AvailabilityResponse, error) {
			got = req
			return &service.AvailabilityResponse{MerchantID: req.MerchantID, BookingType: req.BookingType, Days: []model.DayAvailability{}}, nil
		},
	}
	router := newBookingRouter(svc)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantWkends bool
	}{
		{"weekdays", "?booking_type=Training&from=2026-03-02&to=2026-03-06", http.StatusOK, false},
		{"weekends", "?booking_type=Training&from=2026-03-02&to=2026-03-08&include_weekends=true", http.StatusOK, true},
		{"bad flag", "?booking_type=Training&from=2026-03-02&to=2026-03-06&include_weekends=maybe", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/merchants/m-1/availability"+tt.query, nil))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, "m-1", got.MerchantID)
			assert.Equal(t, model.BookingTraining, got.BookingType)
			assert.Equal(t, tt.wantWkends, got.IncludeWeekends)
		})
	}
}

func TestBookingHandler_Book(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"booking_type":"Training","date":"2026-03-04","slot":"Morning"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "slot taken",
			body:       `{"booking_type":"Training","date":"2026-03-04","slot":"Morning"}`,
			err:        apperrors.SlotNoLongerAvailable("alice", "Morning"),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeSlotNoLongerAvailable,
		},
		{
			name:       "crm write failed",
			body:       `{"booking_type":"Training","date":"2026-03-04","slot":"Morning"}`,
			err:        apperrors.CRMWriteFailed(errors.New("502")),
			wantStatus: http.StatusBadGateway,
			wantCode:   apperrors.CodeCRMWriteFailed,
		},
		{
			name:       "unknown field",
			body:       `{"booking_type":"Training","colour":"blue"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
		{
			name:       "merchant mismatch",
			body:       `{"merchant_id":"m-2","booking_type":"Training","date":"2026-03-04","slot":"Morning"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.BookRequest
			svc := &mockBookingService{
				bookFunc: func(ctx context.Context, req model.BookRequest) (*model.Booking, error) {
					got = req
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.Booking{MerchantID: req.MerchantID, Status: model.StatusScheduled, CalendarEventID: "evt-1"}, nil
				},
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/merchants/m-1/bookings", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			newBookingRouter(svc).ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			assert.Equal(t, "m-1", got.MerchantID)

			var resp struct {
				Data model.Booking `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "evt-1", resp.Data.CalendarEventID)
		})
	}
}

func TestBookingHandler_CRMFailureReportsSide(t *testing.T) {
	svc := &mockBookingService{
		rescheduleFunc: func(ctx context.Context, req model.RescheduleRequest) (*model.Booking, error) {
			return nil, apperrors.CRMWriteFailed(errors.New("timeout"))
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/merchants/m-1/bookings/reschedule",
		strings.NewReader(`{"booking_type":"Training","date":"2026-03-05","slot":"Afternoon"}`))
	newBookingRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, string(apperrors.SideCRM), resp.Side)
	assert.True(t, resp.Retryable)
}

func TestBookingHandler_Cancel(t *testing.T) {
	calls := 0
	svc := &mockBookingService{
		cancelFunc: func(ctx context.Context, req model.CancelRequest) (*model.Booking, error) {
			calls++
			assert.Equal(t, "m-1", req.MerchantID)
			return &model.Booking{MerchantID: req.MerchantID, BookingType: req.BookingType, Status: model.StatusCancelled}, nil
		},
	}
	router := newBookingRouter(svc)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/merchants/m-1/bookings/cancel",
			strings.NewReader(`{"booking_type":"Installation"}`))
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Equal(t, 2, calls)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		deps       map[string]Pinger
		wantStatus int
	}{
		{"no dependencies", nil, http.StatusOK},
		{"all up", map[string]Pinger{"mongo": PingFunc(func(context.Context) error { return nil })}, http.StatusOK},
		{"redis down", map[string]Pinger{
			"mongo": PingFunc(func(context.Context) error { return nil }),
			"redis": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
		}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(tt.deps, logger.Discard()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
