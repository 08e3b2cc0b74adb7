package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/vehicle-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoMaintenanceCollection implements MaintenanceCollection for MongoDB.
type MongoMaintenanceCollection struct {
	Collection *mongo.Collection
}

// InsertRecord inserts a maintenance record and returns its id.
func (c *MongoMaintenanceCollection) InsertRecord(ctx context.Context, record models.MaintenanceRecord) (string, error) {
	if c.Collection == nil {
		return "", fmt.Errorf("mongo collection is nil")
	}
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()

	res, err := c.Collection.InsertOne(ctx, record)
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id.Hex(), nil
}

// FindRecordsByVehicle returns a vehicle's maintenance history, newest first.
func (c *MongoMaintenanceCollection) FindRecordsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.MaintenanceRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{"user_id": userID, "vehicle_id": vehicleID}
	opts := options.Find().SetSort(bson.M{"performed_at": -1})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.MaintenanceRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FindRecordByID finds a maintenance record by its id.
func (c *MongoMaintenanceCollection) FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record ID: %w", err)
	}

	var record models.MaintenanceRecord
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpdateRecord updates a maintenance record by its id.
func (c *MongoMaintenanceCollection) UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid record ID: %w", err)
	}

	record.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"category":     record.Category,
		"description":  record.Description,
		"performed_at": record.PerformedAt,
		"odometer":     record.Odometer,
		"cost":         record.Cost,
		"shop":         record.Shop,
		"notes":        record.Notes,
		"updated_at":   record.UpdatedAt,
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

// DeleteRecord deletes a maintenance record by its id.
func (c *MongoMaintenanceCollection) DeleteRecord(ctx context.Context, id string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid record ID: %w", err)
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
