package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"provider_id",
			"service",
			"scheduled_date",
			"scheduled_time",
			"address",
			"status",
			"payment_status",
			"platform_fee",
			"total_amount",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"customer_id": objectIDHex,
			"provider_id": objectIDHex,

			"service": bson.M{
				"bsonType": "object",
				"required": []string{"name", "price"},
				"properties": bson.M{
					"name": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 100,
					},
					"price": bson.M{
						"bsonType": []string{"double", "int", "long"},
						"minimum":  0,
					},
				},
			},

			"scheduled_date": bson.M{
				"bsonType": "date",
			},

			"scheduled_time": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"address": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 300,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     BookingStatuses,
			},

			"payment_status": bson.M{
				"bsonType": "string",
				"enum":     PaymentStatuses,
			},

			"platform_fee": money,
			"total_amount": money,

			"has_review": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
