package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const dbName = "inkwell"

// DB wraps the mongo client and the collections this service touches.
// It is created once at startup and handed to the handlers.
type DB struct {
	Client     *mongo.Client
	Posts      *mongo.Collection
	Tags       *mongo.Collection
	Categories *mongo.Collection
	Users      *mongo.Collection
}

func Connect(uri string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)

	log.Println("Connected to MongoDB successfully")

	return &DB{
		Client:     client,
		Posts:      db.Collection("posts"),
		Tags:       db.Collection("tags"),
		Categories: db.Collection("categories"),
		Users:      db.Collection("users"),
	}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
