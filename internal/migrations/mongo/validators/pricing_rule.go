package validators

import "go.mongodb.org/mongo-driver/bson"

var PricingRuleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"kind",
			"value",
			"is_active",
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

			"kind": bson.M{
				"bsonType": "string",
				"enum": []string{
					"multiplier",
					"flat",
				},
			},

			"priority": bson.M{
				"bsonType": "int",
			},

			// Condition documents are free-form; the pricing engine parses
			// and rejects them at load time.
			"condition": bson.M{
				"bsonType": "object",
			},

			"value": bson.M{
				"bsonType": []string{"double", "int"},
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"description": bson.M{
				"bsonType": "string",
			},
		},
	},
}
