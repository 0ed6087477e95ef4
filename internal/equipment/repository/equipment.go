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
	CatalogCollectionName   = "Equipment_catalog"
	InventoryCollectionName = "Equipment_inventory"
)

type EquipmentRepository interface {
	// FindCatalogByID returns (nil, nil) when no catalog item matches.
	FindCatalogByID(ctx context.Context, id string) (*model.EquipmentCatalog, error)
	// FindInventoryByID returns (nil, nil) when no inventory record matches.
	FindInventoryByID(ctx context.Context, id string) (*model.EquipmentInventory, error)
}

type mongoEquipmentRepository struct {
	cfg       *config.Config
	catalog   *mongo.Collection
	inventory *mongo.Collection
}

func NewMongoEquipmentRepository(cfg *config.Config) EquipmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEquipmentRepository{
		cfg:       cfg,
		catalog:   db.Collection(CatalogCollectionName),
		inventory: db.Collection(InventoryCollectionName),
	}
}

func (r *mongoEquipmentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoEquipmentRepository) FindCatalogByID(ctx context.Context, id string) (*model.EquipmentCatalog, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var item model.EquipmentCatalog
	err := r.catalog.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find equipment catalog item: %w", err)
	}

	return &item, nil
}

func (r *mongoEquipmentRepository) FindInventoryByID(ctx context.Context, id string) (*model.EquipmentInventory, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var inv model.EquipmentInventory
	err := r.inventory.FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find equipment inventory: %w", err)
	}

	return &inv, nil
}
