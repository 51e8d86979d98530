package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"email",
			"password",
			"role",
			"is_active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType":  "string",
				"pattern":   `^[^@\s]+@[^@\s]+$`,
				"maxLength": 254,
			},

			"phone": bson.M{
				"bsonType":  "string",
				"maxLength": 32,
			},

			"password": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"role": bson.M{
				"bsonType": "string",
				"enum":     Roles,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"provider_info": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"rating": bson.M{
						"bsonType": []string{"double", "int", "long"},
						"minimum":  0,
						"maximum":  5,
					},
					"review_count": bson.M{
						"bsonType": []string{"int", "long"},
						"minimum":  0,
					},
					"completed_jobs": bson.M{
						"bsonType": []string{"int", "long"},
						"minimum":  0,
					},
					"verified": bson.M{
						"bsonType": "bool",
					},
					"services": bson.M{
						"bsonType": "array",
						"maxItems": 50,
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
