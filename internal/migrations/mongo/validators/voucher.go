package validators

import "go.mongodb.org/mongo-driver/bson"

var VoucherValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"code",
			"discount_type",
			"discount_value",
			"valid_to",
			"used_count",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"code": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 32,
			},

			"title": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"discount_type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"percentage",
					"fixed",
				},
			},

			"discount_value": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"min_order_value": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"max_discount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"valid_from": bson.M{
				"bsonType": "date",
			},

			"valid_to": bson.M{
				"bsonType": "date",
			},

			"usage_limit": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"per_subject_limit": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"used_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"used_by": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"subject_id", "count"},
					"properties": bson.M{
						"subject_id": bson.M{
							"bsonType":  "string",
							"minLength": 1,
						},
						"count": bson.M{
							"bsonType": []string{"int", "long"},
							"minimum":  0,
						},
						"last_used_at": bson.M{
							"bsonType": "date",
						},
					},
				},
			},

			"applicable_hotels": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType":  "string",
					"minLength": 24,
					"maxLength": 24,
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"inactive",
					"expired",
				},
			},

			"price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"created_by": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
