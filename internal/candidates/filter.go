// Package candidates narrows the personnel pool for a booking.
package candidates

import (
	"slotkeeper/pkg/locale"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/sanitizer"
)

// Outcome is either an ordered candidate list or the signal that no
// internal person covers the merchant and an external vendor is needed.
type Outcome struct {
	Candidates        []model.Candidate
	UseExternalVendor bool
	// Locations is the categorization of the merchant address when location
	// filtering applied, nil otherwise.
	Locations []model.LocationCategory
}

type Filter struct {
	unknownAsRemote bool
	log             *logger.Logger
}

// New builds a filter. unknownAsRemote decides whether an unrecognized
// service type skips location filtering for training.
func New(unknownAsRemote bool, log *logger.Logger) *Filter {
	return &Filter{
		unknownAsRemote: unknownAsRemote,
		log:             log.Component("candidates"),
	}
}

// Filter drops inactive people, applies the location rule for the booking
// type and service type, then moves speakers of the merchant's language to
// the front. Language never removes anyone.
func (f *Filter) Filter(pool []model.Candidate, bookingType model.BookingType, merchantAddress, merchantLanguage string, serviceType model.ServiceType) Outcome {
	active := make([]model.Candidate, 0, len(pool))
	for _, c := range pool {
		if !c.Active || c.Role == model.RoleExternalVendor {
			continue
		}
		active = append(active, c)
	}

	var out Outcome
	if f.needsLocation(bookingType, serviceType) {
		categories := locale.Categorize(merchantAddress)
		out.Locations = categories
		if locale.IsExternal(categories) {
			out.UseExternalVendor = true
			return out
		}

		covered := active[:0]
		for _, c := range active {
			if c.HasLocation(categories...) {
				covered = append(covered, c)
			}
		}
		if len(covered) == 0 {
			out.UseExternalVendor = true
			return out
		}
		active = covered
	}

	out.Candidates = rankByLanguage(active, merchantLanguage)
	return out
}

func (f *Filter) needsLocation(bookingType model.BookingType, serviceType model.ServiceType) bool {
	if bookingType == model.BookingInstallation {
		return true
	}
	switch serviceType {
	case model.ServiceOnsite:
		return true
	case model.ServiceUnknown:
		if f.unknownAsRemote {
			f.log.Warn("Unknown service type treated as remote, location filter skipped", "booking_type", bookingType)
			return false
		}
		return true
	default:
		return false
	}
}

// rankByLanguage is a stable partition: speakers first, everyone else after,
// each group in its original order.
func rankByLanguage(pool []model.Candidate, language string) []model.Candidate {
	language = sanitizer.NormalizeLanguage(language)
	if language == "" || !anyDeclaresLanguages(pool) {
		return pool
	}

	ranked := make([]model.Candidate, 0, len(pool))
	var rest []model.Candidate
	for _, c := range pool {
		if c.SpeaksLanguage(language) {
			ranked = append(ranked, c)
		} else {
			rest = append(rest, c)
		}
	}
	return append(ranked, rest...)
}

func anyDeclaresLanguages(pool []model.Candidate) bool {
	for _, c := range pool {
		if len(c.Languages) > 0 {
			return true
		}
	}
	return false
}
