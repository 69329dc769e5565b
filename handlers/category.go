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

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	catSlug := strings.TrimSpace(req.Slug)
	if catSlug == "" {
		catSlug = slug.Make(req.Name)
	}
	if catSlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": "could not derive a slug from the name; supply one explicitly",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	count, err := h.DB.Categories.CountDocuments(ctx, bson.M{"slug": catSlug})
	if err != nil {
		log.Printf("[CreateCategory] count error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A category with this slug already exists"})
		return
	}

	category := models.Category{
		ID:          primitive.NewObjectID(),
		Name:        req.Name,
		Slug:        catSlug,
		Description: req.Description,
		CreatedAt:   time.Now().Unix(),
	}

	if _, err := h.DB.Categories.InsertOne(ctx, category); err != nil {
		log.Printf("[CreateCategory] insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": category,
	})
}

func (h *Handler) ListCategories(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cursor, err := h.DB.Categories.Find(ctx, bson.M{})
	if err != nil {
		log.Printf("[ListCategories] find error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	defer cursor.Close(ctx)

	var categories []models.Category
	if err := cursor.All(ctx, &categories); err != nil {
		log.Printf("[ListCategories] decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode categories"})
		return
	}

	if categories == nil {
		categories = []models.Category{}
	}

	c.JSON(http.StatusOK, categories)
}
