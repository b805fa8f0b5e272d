package locale

import (
	"strings"

	"slotkeeper/pkg/model"
	"slotkeeper/pkg/sanitizer"
)

// Categorize returns every served region named in a free-text address.
// An address naming no region yields [external].
func Categorize(address string) []model.LocationCategory {
	normalized := sanitizer.NormalizeAddress(address)
	if normalized == "" {
		return []model.LocationCategory{model.LocationExternal}
	}
	padded := " " + normalized + " "

	var matched []model.LocationCategory
	for _, region := range Regions {
		for _, alias := range region.Aliases {
			if strings.Contains(padded, " "+alias+" ") {
				matched = append(matched, region.Category)
				break
			}
		}
	}

	if len(matched) == 0 {
		return []model.LocationCategory{model.LocationExternal}
	}
	return matched
}

func IsExternal(categories []model.LocationCategory) bool {
	for _, c := range categories {
		if c != model.LocationExternal {
			return false
		}
	}
	return true
}
