// Package sanitizer normalizes free text coming from the CRM and the
// personnel directory before it is matched or stored.
//
// All functions are idempotent and never fail: invalid input normalizes to
// an empty string or an empty slice.
//
// Normalization includes:
//   - Addresses: case-folded, punctuation collapsed to single spaces ("No.12, Jln Ss2/24, PJ" -> "no 12 jln ss2 24 pj")
//   - Names: whitespace collapsed, trimmed
//   - Emails and languages: trimmed, lowercased
//   - Phone numbers: E.164 for supported regions
//   - Slices: duplicates and empty values removed after normalization
package sanitizer
