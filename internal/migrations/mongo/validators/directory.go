package validators

import "go.mongodb.org/mongo-driver/bson"

var candidateSchema = bson.M{
	"bsonType": "object",
	"required": []string{"person_id", "name", "email", "role", "active"},
	"properties": bson.M{
		"person_id": bson.M{
			"bsonType":  "string",
			"minLength": 1,
			"maxLength": 64,
		},
		"name": bson.M{
			"bsonType":  "string",
			"minLength": 2,
			"maxLength": 100,
		},
		"email": bson.M{
			"bsonType": "string",
			"pattern":  "^[^@\\s]+@[^@\\s]+$",
		},
		"calendar_id": bson.M{
			"bsonType":  "string",
			"maxLength": 256,
		},
		"locations": bson.M{
			"bsonType": []string{"array", "null"},
			"maxItems": 20,
			"items":    bson.M{"bsonType": "string"},
		},
		"languages": bson.M{
			"bsonType": []string{"array", "null"},
			"maxItems": 10,
			"items":    bson.M{"bsonType": "string"},
		},
		"role": bson.M{
			"bsonType": "string",
			"enum":     []string{"Trainer", "Installer", "ExternalVendor"},
		},
		"active": bson.M{
			"bsonType": "bool",
		},
	},
}

var ruleSchema = bson.M{
	"bsonType": "object",
	"required": []string{"person_id"},
	"properties": bson.M{
		"person_id":     bson.M{"bsonType": "string"},
		"merchant_id":   bson.M{"bsonType": "string"},
		"merchant_name": bson.M{"bsonType": "string"},
		"pattern":       bson.M{"bsonType": "string"},
		"booking_type": bson.M{
			"bsonType": "string",
			"enum":     []string{"Training", "Installation"},
		},
	},
}

var DirectoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"version",
			"candidates",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"version": bson.M{
				"bsonType": []string{"long", "int"},
				"minimum":  1,
			},

			"candidates": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    candidateSchema,
			},

			"rules": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    ruleSchema,
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},

			"updated_by": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},
		},
	},
}

var DirectoryHistoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"version", "updated_at"},
		"properties": bson.M{
			"version": bson.M{
				"bsonType": []string{"long", "int"},
				"minimum":  1,
			},
			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
