package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtside/pkg/config"
	"courtside/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName             = "Coaches"
	AvailabilityCollectionName = "Coach_availability"
)

type CoachRepository interface {
	// FindByID returns (nil, nil) when no coach matches.
	FindByID(ctx context.Context, id string) (*model.Coach, error)
	// FindShift returns the availability record for the coach on the given
	// calendar date (midnight-truncated), or (nil, nil) when the coach has
	// no record for that date.
	FindShift(ctx context.Context, coachID string, date time.Time) (*model.CoachAvailability, error)
}

type mongoCoachRepository struct {
	cfg          *config.Config
	collection   *mongo.Collection
	availability *mongo.Collection
}

func NewMongoCoachRepository(cfg *config.Config) CoachRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCoachRepository{
		cfg:          cfg,
		collection:   db.Collection(CollectionName),
		availability: db.Collection(AvailabilityCollectionName),
	}
}

func (r *mongoCoachRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoCoachRepository) FindByID(ctx context.Context, id string) (*model.Coach, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var coach model.Coach
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&coach)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find coach: %w", err)
	}

	return &coach, nil
}

func (r *mongoCoachRepository) FindShift(ctx context.Context, coachID string, date time.Time) (*model.CoachAvailability, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"coach_id": coachID,
		"date":     date,
	}

	var shift model.CoachAvailability
	err := r.availability.FindOne(ctx, filter).Decode(&shift)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find coach availability: %w", err)
	}

	return &shift, nil
}
