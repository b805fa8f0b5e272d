package validators

import "go.mongodb.org/mongo-driver/bson"

var MerchantValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "name"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},
			"address": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},
			"language": bson.M{
				"bsonType": "string",
			},
			"service_type": bson.M{
				"bsonType": "string",
			},
			"account_owner": bson.M{
				"bsonType": "string",
			},
			"explicit_assignee": bson.M{
				"bsonType": "string",
			},
			"phone": bson.M{
				"bsonType":  "string",
				"maxLength": 32,
			},
		},
	},
}

var BookingFieldsValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"merchant_id",
			"booking_type",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"merchant_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"booking_type": bson.M{
				"bsonType": "string",
				"enum":     []string{"Training", "Installation"},
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]{4}-[0-9]{2}-[0-9]{2}$",
			},

			"slot": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"slot_start": bson.M{
				"bsonType": "date",
			},

			"slot_end": bson.M{
				"bsonType": "date",
			},

			"assignee": bson.M{
				"bsonType": "string",
			},

			"event_id": bson.M{
				"bsonType": "string",
			},

			"calendar_id": bson.M{
				"bsonType": "string",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Scheduled",
					"Rescheduled",
					"Cancelled",
				},
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
