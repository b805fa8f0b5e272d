package sanitizer

// Unique applies normalizer to every item and keeps the first occurrence of
// each non-empty result, preserving input order.
func Unique(items []string, normalizer Strategy) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := normalizer(item)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func NormalizeLanguages(languages []string) []string {
	return Unique(languages, NormalizeLanguage)
}

func NormalizeEmails(emails []string) []string {
	return Unique(emails, NormalizeEmail)
}
