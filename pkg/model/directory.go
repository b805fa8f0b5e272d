package model

import "time"

// DirectorySnapshot is one immutable version of the personnel directory.
type DirectorySnapshot struct {
	Version    int64         `json:"version" bson:"version"`
	Candidates []Candidate   `json:"candidates" bson:"candidates"`
	Rules      []MappingRule `json:"rules" bson:"rules"`
	UpdatedAt  time.Time     `json:"updated_at" bson:"updated_at"`
	UpdatedBy  string        `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

func (s *DirectorySnapshot) ByRole(role Role) []Candidate {
	out := make([]Candidate, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

func (s *DirectorySnapshot) Find(personID string) (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.PersonID == personID {
			return c, true
		}
	}
	return Candidate{}, false
}

type MutationKind string

const (
	MutationUpsertCandidate MutationKind = "upsert_candidate"
	MutationDeactivate      MutationKind = "deactivate_candidate"
	MutationReplaceRules    MutationKind = "replace_rules"
)

// DirectoryMutation is an explicit change applied on top of an expected version.
type DirectoryMutation struct {
	Kind            MutationKind  `json:"kind" validate:"required,oneof=upsert_candidate deactivate_candidate replace_rules"`
	ExpectedVersion int64         `json:"expected_version" validate:"min=0"`
	Candidate       *Candidate    `json:"candidate,omitempty" validate:"required_if=Kind upsert_candidate,omitempty"`
	PersonID        string        `json:"person_id,omitempty" validate:"required_if=Kind deactivate_candidate"`
	Rules           []MappingRule `json:"rules,omitempty" validate:"omitempty,dive"`
	Actor           string        `json:"actor,omitempty"`
}

// Clone returns a deep copy that mutations can be applied to.
func (s *DirectorySnapshot) Clone() *DirectorySnapshot {
	out := *s
	out.Candidates = make([]Candidate, len(s.Candidates))
	for i, c := range s.Candidates {
		c.Locations = append([]LocationCategory(nil), c.Locations...)
		c.Languages = append([]string(nil), c.Languages...)
		out.Candidates[i] = c
	}
	out.Rules = append([]MappingRule(nil), s.Rules...)
	return &out
}
