package model

import "time"

type IneligibleReason string

const (
	ReasonBusy                IneligibleReason = "busy"
	ReasonIdentityNotFound    IneligibleReason = "identity_not_found"
	ReasonBusyTimeUnavailable IneligibleReason = "busy_time_unavailable"
)

type AvailabilityResult struct {
	Slot                 TimeSlot                    `json:"slot"`
	Available            bool                        `json:"available"`
	EligibleCandidateIDs []string                    `json:"eligible_candidate_ids"`
	IneligibleReasons    map[string]IneligibleReason `json:"ineligible_reasons,omitempty"`
}

type DayAvailability struct {
	Date    string               `json:"date"`
	Results []AvailabilityResult `json:"results"`
}

// DateRange is an inclusive range of calendar days in the business timezone.
type DateRange struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	IncludeWeekends bool      `json:"include_weekends"`
}

func (r DateRange) Days(loc *time.Location) []time.Time {
	var days []time.Time
	fy, fm, fd := r.From.In(loc).Date()
	ty, tm, td := r.To.In(loc).Date()
	last := time.Date(ty, tm, td, 0, 0, 0, 0, loc)
	for day := time.Date(fy, fm, fd, 0, 0, 0, 0, loc); !day.After(last); day = day.AddDate(0, 0, 1) {
		if !r.IncludeWeekends && IsWeekend(day) {
			continue
		}
		days = append(days, day)
	}
	return days
}

func IsWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

const DateLayout = "2006-01-02"
