package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a user-registered vehicle.
type Vehicle struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"user_id" json:"user_id"`
	Make              string             `bson:"make" json:"make"`
	Model             string             `bson:"model" json:"model"`
	Year              int                `bson:"year" json:"year"`
	Nickname          string             `bson:"nickname,omitempty" json:"nickname,omitempty"`
	VIN               string             `bson:"vin,omitempty" json:"vin,omitempty"`
	Odometer          float64            `bson:"odometer" json:"odometer"` // in kilometers
	OdometerUpdatedAt time.Time          `bson:"odometer_updated_at,omitempty" json:"odometer_updated_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// Label returns the display name used in conflict messages: the nickname when
// set, otherwise "year make model".
func (v *Vehicle) Label() string {
	if v.Nickname != "" {
		return v.Nickname
	}
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}
