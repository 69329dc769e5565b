package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"inkwell/models"
	"inkwell/slug"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateTagRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *Handler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	tagSlug := strings.TrimSpace(req.Slug)
	if tagSlug == "" {
		tagSlug = slug.Make(req.Name)
	}
	if tagSlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": "could not derive a slug from the name; supply one explicitly",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	count, err := h.DB.Tags.CountDocuments(ctx, bson.M{"slug": tagSlug})
	if err != nil {
		log.Printf("[CreateTag] count error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A tag with this slug already exists"})
		return
	}

	tag := models.Tag{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Slug:        tagSlug,
		Description: req.Description,
		CreatedAt:   time.Now().Unix(),
	}

	if _, err := h.DB.Tags.InsertOne(ctx, tag); err != nil {
		log.Printf("[CreateTag] insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tag created successfully",
		"tag":     tag,
	})
}

func (h *Handler) ListTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cursor, err := h.DB.Tags.Find(ctx, bson.M{})
	if err != nil {
		log.Printf("[ListTags] find error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tags"})
		return
	}
	defer cursor.Close(ctx)

	var tags []models.Tag
	if err := cursor.All(ctx, &tags); err != nil {
		log.Printf("[ListTags] decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode tags"})
		return
	}

	if tags == nil {
		tags = []models.Tag{}
	}

	c.JSON(http.StatusOK, tags)
}
