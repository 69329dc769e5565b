package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Post struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Title         string                 `bson:"title" json:"title"`
	Slug          string                 `bson:"slug" json:"slug"`
	Content       string                 `bson:"content" json:"content"`
	Author        primitive.ObjectID     `bson:"author" json:"author"`
	Category      primitive.ObjectID     `bson:"category" json:"category"`
	Tags          []primitive.ObjectID   `bson:"tags" json:"tags"`
	SEO           map[string]interface{} `bson:"seo" json:"seo"`
	FeaturedImage string                 `bson:"featuredImage,omitempty" json:"featuredImage,omitempty"`
	Published     bool                   `bson:"published" json:"published"`
	CreatedAt     int64                  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     int64                  `bson:"updatedAt" json:"updatedAt"`
}

// AuthorRef is the projection of a user embedded in an expanded post.
type AuthorRef struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	Avatar string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// TermRef is the projection of a tag or category embedded in an expanded post.
type TermRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
	Slug string             `bson:"slug" json:"slug"`
}

// PostDetail is a post with author/category/tags expanded. Produced by the
// $lookup pipelines in handlers, never stored.
type PostDetail struct {
	ID            primitive.ObjectID     `bson:"_id" json:"id"`
	Title         string                 `bson:"title" json:"title"`
	Slug          string                 `bson:"slug" json:"slug"`
	Content       string                 `bson:"content" json:"content"`
	Author        *AuthorRef             `bson:"author" json:"author"`
	Category      *TermRef               `bson:"category" json:"category"`
	Tags          []TermRef              `bson:"tags" json:"tags"`
	SEO           map[string]interface{} `bson:"seo" json:"seo"`
	FeaturedImage string                 `bson:"featuredImage,omitempty" json:"featuredImage,omitempty"`
	Published     bool                   `bson:"published" json:"published"`
	CreatedAt     int64                  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     int64                  `bson:"updatedAt" json:"updatedAt"`
}
