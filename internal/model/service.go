package model

import (
	"strings"

	"github.com/google/uuid"
)

type ServiceType string

const (
	ServiceTypeGazelleFrom ServiceType = "GAZELLE_FROM"
	ServiceTypeGazelleTo   ServiceType = "GAZELLE_TO"
	ServiceTypeLoader      ServiceType = "LOADER"
	ServiceTypePacker      ServiceType = "PACKER"
	ServiceTypeBox         ServiceType = "BOX"
	ServiceTypeFilm        ServiceType = "FILM"
	ServiceTypeOther       ServiceType = "OTHER"
)

var serviceTypes = map[string]ServiceType{
	"GAZELLE_FROM": ServiceTypeGazelleFrom,
	"GAZELLE_TO":   ServiceTypeGazelleTo,
	"LOADER":       ServiceTypeLoader,
	"PACKER":       ServiceTypePacker,
	"BOX":          ServiceTypeBox,
	"FILM":         ServiceTypeFilm,
}

// ParseServiceType maps a raw tag to a known service type; unknown tags fold
// into ServiceTypeOther.
func ParseServiceType(raw string) ServiceType {
	if t, ok := serviceTypes[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return t
	}
	return ServiceTypeOther
}

// IsTransport reports whether the type is one of the derived transport line
// items kept in lockstep with moving orders.
func (t ServiceType) IsTransport() bool {
	return t == ServiceTypeGazelleFrom || t == ServiceTypeGazelleTo
}

// Service is a billable ancillary line item attached to an order. Transport
// entries are derived from moving orders and are not independently editable.
type Service struct {
	ID         uuid.UUID
	Type       ServiceType
	Price      float64
	Count      int
	TotalPrice float64
}

// Tariff is a provider price-list entry.
type Tariff struct {
	ID          uuid.UUID
	Type        ServiceType
	Price       float64
	Description string
}
