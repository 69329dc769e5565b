package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Tag struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   int64              `bson:"createdAt" json:"createdAt"`
}
