package model

import (
	"fmt"
	"strings"
	"time"
)

type BusySource string

const (
	SourceFreeBusy  BusySource = "freebusy"
	SourceEvent     BusySource = "event"
	SourceRecurring BusySource = "recurring"
)

// BusyInterval is a half-open [Start, End) range during which a person is committed.
type BusyInterval struct {
	PersonID string     `json:"person_id" bson:"person_id"`
	Start    time.Time  `json:"start" bson:"start"`
	End      time.Time  `json:"end" bson:"end"`
	Source   BusySource `json:"source" bson:"source"`
}

func (b BusyInterval) Valid() bool {
	return b.Start.Before(b.End)
}

// Overlaps reports whether [s1,e1) and [s2,e2) share at least one instant.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

type TimeSlot struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
	Label string    `json:"label" bson:"label"`
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s[%s-%s]", s.Label, s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
}

// SlotDefinition is a wall-clock slot in the business timezone, e.g. 09:00-11:00.
type SlotDefinition struct {
	Label      string `json:"label"`
	StartClock string `json:"start"`
	EndClock   string `json:"end"`

	startMin int
	endMin   int
}

type SlotTemplate []SlotDefinition

// ParseSlotTemplate reads "Label=HH:MM-HH:MM;Label=HH:MM-HH:MM".
func ParseSlotTemplate(raw string) (SlotTemplate, error) {
	var template SlotTemplate
	seen := map[string]struct{}{}

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, window, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("slot %q: expected Label=HH:MM-HH:MM", part)
		}
		startClock, endClock, ok := strings.Cut(window, "-")
		if !ok {
			return nil, fmt.Errorf("slot %q: expected HH:MM-HH:MM", part)
		}
		def, err := NewSlotDefinition(strings.TrimSpace(label), strings.TrimSpace(startClock), strings.TrimSpace(endClock))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[def.Label]; dup {
			return nil, fmt.Errorf("slot %q declared twice", def.Label)
		}
		seen[def.Label] = struct{}{}
		template = append(template, def)
	}

	if len(template) == 0 {
		return nil, fmt.Errorf("slot template is empty")
	}
	return template, nil
}

func NewSlotDefinition(label, startClock, endClock string) (SlotDefinition, error) {
	if label == "" {
		return SlotDefinition{}, fmt.Errorf("slot label cannot be empty")
	}
	startMin, err := parseClock(startClock)
	if err != nil {
		return SlotDefinition{}, fmt.Errorf("slot %q: %w", label, err)
	}
	endMin, err := parseClock(endClock)
	if err != nil {
		return SlotDefinition{}, fmt.Errorf("slot %q: %w", label, err)
	}
	if endMin <= startMin {
		return SlotDefinition{}, fmt.Errorf("slot %q: end %s must be after start %s", label, endClock, startClock)
	}
	return SlotDefinition{
		Label:      label,
		StartClock: startClock,
		EndClock:   endClock,
		startMin:   startMin,
		endMin:     endMin,
	}, nil
}

func parseClock(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q, want HH:MM", clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// On anchors the definition to a calendar day in loc and returns absolute instants.
func (d SlotDefinition) On(day time.Time, loc *time.Location) TimeSlot {
	startMin, endMin := d.startMin, d.endMin
	if startMin == 0 && endMin == 0 {
		startMin, _ = parseClock(d.StartClock)
		endMin, _ = parseClock(d.EndClock)
	}
	y, m, dd := day.In(loc).Date()
	return TimeSlot{
		Start: time.Date(y, m, dd, startMin/60, startMin%60, 0, 0, loc),
		End:   time.Date(y, m, dd, endMin/60, endMin%60, 0, 0, loc),
		Label: d.Label,
	}
}

func (t SlotTemplate) Find(label string) (SlotDefinition, bool) {
	for _, d := range t {
		if strings.EqualFold(d.Label, label) {
			return d, true
		}
	}
	return SlotDefinition{}, false
}

func (t SlotTemplate) Labels() []string {
	labels := make([]string, 0, len(t))
	for _, d := range t {
		labels = append(labels, d.Label)
	}
	return labels
}
