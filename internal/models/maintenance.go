package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceRecord represents a completed maintenance event, either DIY or
// performed at a shop.
type MaintenanceRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	VehicleID   string             `bson:"vehicle_id" json:"vehicle_id"`
	Category    string             `bson:"category" json:"category"` // "oil_change", "tire_rotation", "brake_service", "battery_service", "inspection"
	Description string             `bson:"description" json:"description"`
	PerformedAt time.Time          `bson:"performed_at" json:"performed_at"`
	Odometer    float64            `bson:"odometer" json:"odometer"` // in kilometers
	Cost        float64            `bson:"cost" json:"cost"`         // in USD
	Shop        string             `bson:"shop,omitempty" json:"shop,omitempty"` // empty for DIY work
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
