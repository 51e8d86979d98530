package validators

import "go.mongodb.org/mongo-driver/bson"

var ReviewValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"booking_id",
			"customer_id",
			"provider_id",
			"rating",
			"comment",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"booking_id":  objectIDHex,
			"customer_id": objectIDHex,
			"provider_id": objectIDHex,

			"rating": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  5,
			},

			"comment": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 1000,
			},

			"response": bson.M{
				"bsonType": "object",
				"required": []string{"text", "date"},
				"properties": bson.M{
					"text": bson.M{
						"bsonType":  "string",
						"maxLength": 1000,
					},
					"date": bson.M{
						"bsonType": "date",
					},
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     ReviewStatuses,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
