package model

import "strings"

// Carrier is the generation technology of a unit.
// Keep these values stable; they match the "type" column of prods_charac.csv.
type Carrier string

const (
	CarrierWind    Carrier = "wind"
	CarrierSolar   Carrier = "solar"
	CarrierHydro   Carrier = "hydro"
	CarrierNuclear Carrier = "nuclear"
	CarrierThermal Carrier = "thermal"
)

// ParseCarrier normalizes a raw carrier label. Unknown labels are kept
// verbatim (lower-cased) so exotic carriers still group together.
func ParseCarrier(s string) Carrier {
	return Carrier(strings.ToLower(strings.TrimSpace(s)))
}

// Renewable reports whether the carrier is part of the wind/solar-only mode.
func (c Carrier) Renewable() bool {
	return c == CarrierWind || c == CarrierSolar
}
