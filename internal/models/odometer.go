package models

import "time"

// OdometerReading is a single mileage report for a vehicle, published on the
// MQTT odometer topic and applied to the vehicle document.
type OdometerReading struct {
	VehicleID  string    `json:"vehicle_id"`
	Odometer   float64   `json:"odometer"` // in kilometers
	RecordedAt time.Time `json:"recorded_at"`
}
