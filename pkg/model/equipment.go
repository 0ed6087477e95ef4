package model

type EquipmentCatalog struct {
	ID              string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string  `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Category        string  `json:"category" bson:"category" validate:"required,oneof=racket shoes shuttlecock accessory"`
	PricePerSession float64 `json:"price_per_session" bson:"price_per_session" validate:"required,gte=0"`
	ImageURL        string  `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Description     string  `json:"description,omitempty" bson:"description,omitempty"`
}

// EquipmentInventory tracks physical stock for one catalog item.
// Usable stock is TotalStock minus MaintenanceStock.
type EquipmentInventory struct {
	ID               string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CatalogID        string `json:"catalog_id" bson:"catalog_id" validate:"required,mongodb"`
	TotalStock       int    `json:"total_stock" bson:"total_stock" validate:"gte=0"`
	MaintenanceStock int    `json:"maintenance_stock" bson:"maintenance_stock" validate:"gte=0"`
}

func (inv *EquipmentInventory) UsableStock() int {
	return inv.TotalStock - inv.MaintenanceStock
}
