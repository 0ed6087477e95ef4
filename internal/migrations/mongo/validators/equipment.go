package validators

import "go.mongodb.org/mongo-driver/bson"

var EquipmentCatalogValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"category",
			"price_per_session",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"category": bson.M{
				"bsonType": "string",
				"enum": []string{
					"racket",
					"shoes",
					"shuttlecock",
					"accessory",
				},
			},

			"price_per_session": bson.M{
				"bsonType": []string{"double", "int"},
				"minimum":  0,
			},

			"image_url": bson.M{
				"bsonType": "string",
			},

			"description": bson.M{
				"bsonType": "string",
			},
		},
	},
}

var EquipmentInventoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"catalog_id",
			"total_stock",
			"maintenance_stock",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"catalog_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"total_stock": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"maintenance_stock": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},
		},
	},
}
