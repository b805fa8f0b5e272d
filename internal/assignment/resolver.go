// Package assignment picks the single assignee for a booking.
package assignment

import (
	"regexp"

	apperrors "slotkeeper/pkg/errors"
	"slotkeeper/pkg/model"
	"slotkeeper/pkg/sanitizer"
)

type Reason string

const (
	ReasonExplicit     Reason = "explicit_assignee"
	ReasonMappingRule  Reason = "mapping_rule"
	ReasonAccountOwner Reason = "account_owner"
	ReasonRoundRobin   Reason = "round_robin"
)

type Result struct {
	Assignee   model.Candidate
	Reason     Reason
	NextCursor uint64
}

// Resolve applies, in order: the merchant's explicit assignee, the first
// mapping rule whose target is eligible, the account owner, and finally
// round-robin at cursor. Only the round-robin branch advances the cursor.
// bookingType scopes mapping rules that name one.
func Resolve(eligible []model.Candidate, merchant model.MerchantData, bookingType model.BookingType, rules []model.MappingRule, cursor uint64) (Result, error) {
	if len(eligible) == 0 {
		return Result{NextCursor: cursor}, apperrors.NoAssigneeAvailable(false)
	}

	if c, ok := explicit(eligible, merchant.ExplicitAssignee); ok {
		return Result{Assignee: c, Reason: ReasonExplicit, NextCursor: cursor}, nil
	}

	for _, rule := range rules {
		if rule.BookingType != "" && rule.BookingType != string(bookingType) {
			continue
		}
		if !ruleMatches(rule, merchant) {
			continue
		}
		if c, ok := byID(eligible, rule.PersonID); ok {
			return Result{Assignee: c, Reason: ReasonMappingRule, NextCursor: cursor}, nil
		}
	}

	if owner := sanitizer.NameKey(merchant.AccountOwner); owner != "" {
		for _, c := range eligible {
			if sanitizer.NameKey(c.Name) == owner {
				return Result{Assignee: c, Reason: ReasonAccountOwner, NextCursor: cursor}, nil
			}
		}
	}

	idx := cursor % uint64(len(eligible))
	return Result{Assignee: eligible[idx], Reason: ReasonRoundRobin, NextCursor: cursor + 1}, nil
}

// explicit matches the preference against person id, email or name.
func explicit(eligible []model.Candidate, preference string) (model.Candidate, bool) {
	if preference == "" {
		return model.Candidate{}, false
	}
	if c, ok := byID(eligible, preference); ok {
		return c, true
	}
	email := sanitizer.NormalizeEmail(preference)
	name := sanitizer.NameKey(preference)
	for _, c := range eligible {
		if sanitizer.NormalizeEmail(c.Email) == email || sanitizer.NameKey(c.Name) == name {
			return c, true
		}
	}
	return model.Candidate{}, false
}

func byID(eligible []model.Candidate, personID string) (model.Candidate, bool) {
	for _, c := range eligible {
		if c.PersonID == personID {
			return c, true
		}
	}
	return model.Candidate{}, false
}

func ruleMatches(rule model.MappingRule, merchant model.MerchantData) bool {
	switch {
	case rule.MerchantID != "":
		return rule.MerchantID == merchant.MerchantID
	case rule.MerchantName != "":
		return sanitizer.NameKey(rule.MerchantName) == sanitizer.NameKey(merchant.Name)
	case rule.Pattern != "":
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(merchant.Name)
	}
	return false
}
