package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IntervalType describes how a program task recurs.
type IntervalType string

const (
	IntervalMileage IntervalType = "mileage"
	IntervalTime    IntervalType = "time"
)

// ProgramTask is a single recurring task inside a maintenance program.
// Tasks live embedded in the program document and carry their own uuid.
type ProgramTask struct {
	ID             string       `bson:"id" json:"id"`
	Name           string       `bson:"name" json:"name"`
	Category       string       `bson:"category" json:"category"` // "oil_change", "tire_rotation", "brake_service", "battery_service", "inspection"
	IntervalType   IntervalType `bson:"interval_type" json:"interval_type"`
	IntervalValue  int          `bson:"interval_value" json:"interval_value"` // kilometers or days, per IntervalType
	EstimatedCost  float64      `bson:"estimated_cost,omitempty" json:"estimated_cost,omitempty"` // in USD
	ReminderOffset int          `bson:"reminder_offset,omitempty" json:"reminder_offset,omitempty"`
}

// MaintenanceProgram is a named, user-owned schedule of recurring maintenance
// tasks assigned to one or more vehicles. An active program never has an empty
// vehicle set; emptying it through conflict resolution deletes the program.
type MaintenanceProgram struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             string             `bson:"user_id" json:"user_id"`
	Name               string             `bson:"name" json:"name"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	AssignedVehicleIDs []string           `bson:"assigned_vehicle_ids" json:"assigned_vehicle_ids"`
	IsActive           bool               `bson:"is_active" json:"is_active"`
	Tasks              []ProgramTask      `bson:"tasks" json:"tasks"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValidIntervalType checks if an interval type is valid.
func IsValidIntervalType(t IntervalType) bool {
	switch t {
	case IntervalMileage, IntervalTime:
		return true
	default:
		return false
	}
}
