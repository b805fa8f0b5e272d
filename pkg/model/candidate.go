package model

import "strings"

type Role string

const (
	RoleTrainer        Role = "Trainer"
	RoleInstaller      Role = "Installer"
	RoleExternalVendor Role = "ExternalVendor"
)

type LocationCategory string

const (
	LocationJohor          LocationCategory = "Johor"
	LocationKedah          LocationCategory = "Kedah"
	LocationKelantan       LocationCategory = "Kelantan"
	LocationMelaka         LocationCategory = "Melaka"
	LocationNegeriSembilan LocationCategory = "Negeri Sembilan"
	LocationPahang         LocationCategory = "Pahang"
	LocationPerak          LocationCategory = "Perak"
	LocationPerlis         LocationCategory = "Perlis"
	LocationPenang         LocationCategory = "Penang"
	LocationSabah          LocationCategory = "Sabah"
	LocationSarawak        LocationCategory = "Sarawak"
	LocationSelangor       LocationCategory = "Selangor"
	LocationTerengganu     LocationCategory = "Terengganu"
	LocationKualaLumpur    LocationCategory = "Kuala Lumpur"
	LocationLabuan         LocationCategory = "Labuan"
	LocationPutrajaya      LocationCategory = "Putrajaya"
	LocationExternal       LocationCategory = "external"
)

// Candidate is a person who may be assigned a booking, pending filtering.
type Candidate struct {
	PersonID   string             `json:"person_id" bson:"person_id" validate:"required,min=1,max=64"`
	Name       string             `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email      string             `json:"email" bson:"email" validate:"required,email"`
	CalendarID string             `json:"calendar_id,omitempty" bson:"calendar_id,omitempty" validate:"omitempty,max=256"`
	Locations  []LocationCategory `json:"locations" bson:"locations" validate:"omitempty,max=20,dive,location_category"`
	Languages  []string           `json:"languages" bson:"languages" validate:"omitempty,max=10,dive,min=2,max=32"`
	Role       Role               `json:"role" bson:"role" validate:"required,oneof=Trainer Installer ExternalVendor"`
	Active     bool               `json:"active" bson:"active"`
}

func (c Candidate) HasLocation(categories ...LocationCategory) bool {
	for _, want := range categories {
		for _, have := range c.Locations {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (c Candidate) SpeaksLanguage(language string) bool {
	for _, l := range c.Languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}

// MappingRule routes a merchant to a preferred person. Exactly one matcher is set.
type MappingRule struct {
	MerchantID   string `json:"merchant_id,omitempty" bson:"merchant_id,omitempty" validate:"required_without_all=MerchantName Pattern"`
	MerchantName string `json:"merchant_name,omitempty" bson:"merchant_name,omitempty"`
	Pattern      string `json:"pattern,omitempty" bson:"pattern,omitempty" validate:"omitempty,regexp"`
	PersonID     string `json:"person_id" bson:"person_id" validate:"required"`
	BookingType  string `json:"booking_type,omitempty" bson:"booking_type,omitempty" validate:"omitempty,oneof=Training Installation"`
}
