package types

// AddressMissing marks a location snapshot supplied without an address.
const AddressMissing = "location missing"

// GeoPoint is a lat/lng pair plus the human-readable address it resolves to.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// NormalizedGeoPoint fills defaults for partially supplied driver locations:
// missing coordinates become 0 and a missing address gets an explicit marker.
func NormalizedGeoPoint(p *GeoPoint) GeoPoint {
	if p == nil {
		return GeoPoint{Address: AddressMissing}
	}
	out := *p
	if out.Address == "" {
		out.Address = AddressMissing
	}
	return out
}
