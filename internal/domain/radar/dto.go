package radar

import "time"

// UpdateLocationRequest represents a location report
type UpdateLocationRequest struct {
	Latitude   float64   `json:"latitude" validate:"latitude"`
	Longitude  float64   `json:"longitude" validate:"longitude"`
	RecordedAt time.Time `json:"recorded_at" validate:"required"`
}

// UpdateLocationResponse reports whether the update was applied
type UpdateLocationResponse struct {
	Applied bool `json:"applied"`
}

// NearbyResponse represents a radar query result
type NearbyResponse struct {
	Neighbors []Neighbor `json:"neighbors"`
	RadiusKm  float64    `json:"radius_km"`
}
