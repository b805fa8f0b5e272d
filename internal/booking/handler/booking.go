package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"slotkeeper/internal/booking/service"
	apperrors "slotkeeper/pkg/errors"
	httputil "slotkeeper/pkg/http"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	includeWeekends, err := httputil.QueryBool(r, "include_weekends", false)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	q := r.URL.Query()
	resp, err := h.service.Availability(r.Context(), model.AvailabilityRequest{
		MerchantID:      ps.ByName("merchant_id"),
		BookingType:     model.BookingType(q.Get("booking_type")),
		From:            q.Get("from"),
		To:              q.Get("to"),
		IncludeWeekends: includeWeekends,
	})
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BookRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Book", err)
		return
	}
	if err := bindMerchant(&req.MerchantID, ps); err != nil {
		h.writeError(w, "Book", err)
		return
	}

	booking, err := h.service.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.RescheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}
	if err := bindMerchant(&req.MerchantID, ps); err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	booking, err := h.service.Reschedule(r.Context(), req)
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Reschedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CancelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}
	if err := bindMerchant(&req.MerchantID, ps); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	booking, err := h.service.Cancel(r.Context(), req)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// bindMerchant takes the merchant from the path. A body that names a
// different merchant is rejected.
func bindMerchant(field *string, ps httprouter.Params) error {
	merchantID := ps.ByName("merchant_id")
	if *field != "" && *field != merchantID {
		return apperrors.InvalidInput("merchant_id in body does not match the path")
	}
	*field = merchantID
	return nil
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/merchants/:merchant_id/availability", h.Availability)
	router.POST("/api/v1/merchants/:merchant_id/bookings", h.Book)
	router.POST("/api/v1/merchants/:merchant_id/bookings/reschedule", h.Reschedule)
	router.POST("/api/v1/merchants/:merchant_id/bookings/cancel", h.Cancel)
}
