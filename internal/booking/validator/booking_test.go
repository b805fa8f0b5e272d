package validator

import (
	"errors"
	"testing"

	"slotkeeper/pkg/model"
)

func template(t *testing.T) model.SlotTemplate {
	t.Helper()
	tpl, err := model.ParseSlotTemplate("Morning=09:00-11:00;Afternoon=14:00-16:00")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	return tpl
}

func TestValidate_BookRequest(t *testing.T) {
	v := NewBookingValidator(template(t))

	valid := model.BookRequest{
		MerchantID:  "m1",
		BookingType: model.BookingTraining,
		Date:        "2026-03-03",
		SlotLabel:   "Morning",
	}

	tests := []struct {
		name      string
		mutate    func(r *model.BookRequest)
		wantField string
	}{
		{"valid", func(r *model.BookRequest) {}, ""},
		{"label is case-insensitive", func(r *model.BookRequest) { r.SlotLabel = "morning" }, ""},
		{"unknown slot", func(r *model.BookRequest) { r.SlotLabel = "Midnight" }, "slot"},
		{"bad date", func(r *model.BookRequest) { r.Date = "03/03/2026" }, "date"},
		{"bad booking type", func(r *model.BookRequest) { r.BookingType = "Repair" }, "booking_type"},
		{"missing merchant", func(r *model.BookRequest) { r.MerchantID = "" }, "merchant_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := v.Validate(&req)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidate_CancelRequest(t *testing.T) {
	v := NewBookingValidator(template(t))

	if err := v.Validate(&model.CancelRequest{MerchantID: "m1", BookingType: model.BookingInstallation}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := v.Validate(&model.CancelRequest{MerchantID: "m1"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if _, ok := verrs.Details()["fields"].(map[string]any)["booking_type"]; !ok {
		t.Errorf("details missing booking_type: %v", verrs.Details())
	}
}
