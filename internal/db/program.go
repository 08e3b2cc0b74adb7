package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/vehicle-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoProgramCollection implements ProgramCollection for MongoDB.
type MongoProgramCollection struct {
	Collection *mongo.Collection
}

// InsertProgram inserts a maintenance program and returns its id.
func (c *MongoProgramCollection) InsertProgram(ctx context.Context, program models.MaintenanceProgram) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	program.CreatedAt = time.Now()
	program.UpdatedAt = time.Now()

	res, err := c.Collection.InsertOne(ctx, program)
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

// FindProgramsByUser returns all programs owned by a user.
func (c *MongoProgramCollection) FindProgramsByUser(ctx context.Context, userID string) ([]models.MaintenanceProgram, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var programs []models.MaintenanceProgram
	if err := cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// FindProgramsByVehicle returns the user's programs whose assigned vehicle set
// contains the given vehicle id. Active and inactive programs are both
// returned; callers filter.
func (c *MongoProgramCollection) FindProgramsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.MaintenanceProgram, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{"user_id": userID, "assigned_vehicle_ids": vehicleID}
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var programs []models.MaintenanceProgram
	if err := cursor.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// FindProgramByID finds a program by its id.
func (c *MongoProgramCollection) FindProgramByID(ctx context.Context, id string) (*models.MaintenanceProgram, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}

	var program models.MaintenanceProgram
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&program)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// UpdateProgram replaces a program's mutable fields by id.
func (c *MongoProgramCollection) UpdateProgram(ctx context.Context, id string, program models.MaintenanceProgram) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid program ID: %w", err)
	}

	program.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"name":                 program.Name,
		"description":          program.Description,
		"assigned_vehicle_ids": program.AssignedVehicleIDs,
		"is_active":            program.IsActive,
		"tasks":                program.Tasks,
		"updated_at":           program.UpdatedAt,
	}}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProgramVehicles sets a program's assigned vehicle set and bumps
// updated_at, leaving tasks and everything else untouched.
func (c *MongoProgramCollection) UpdateProgramVehicles(ctx context.Context, id string, vehicleIDs []string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid program ID: %w", err)
	}

	update := bson.M{"$set": bson.M{
		"assigned_vehicle_ids": vehicleIDs,
		"updated_at":           time.Now(),
	}}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProgram deletes a program by its id.
func (c *MongoProgramCollection) DeleteProgram(ctx context.Context, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid program ID: %w", err)
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
