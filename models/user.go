package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User documents are written by the identity service; this API only reads
// them to populate post authors.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role      string             `bson:"role" json:"role"` // "author" or "admin"
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}
