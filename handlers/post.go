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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// postPipeline expands author, category and tags to their selected fields.
// match may be nil for the full listing.
func postPipeline(match bson.D) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if match != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$author"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "categories"},
			{Key: "localField", Value: "category"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "category"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$category"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "tags"},
			{Key: "localField", Value: "tags"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "tags"},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "title", Value: 1}, {Key: "slug", Value: 1}, {Key: "content", Value: 1}, {Key: "seo", Value: 1},
			{Key: "featuredImage", Value: 1}, {Key: "published", Value: 1},
			{Key: "createdAt", Value: 1}, {Key: "updatedAt", Value: 1},
			{Key: "author._id", Value: 1}, {Key: "author.name", Value: 1}, {Key: "author.avatar", Value: 1},
			{Key: "category._id", Value: 1}, {Key: "category.name", Value: 1}, {Key: "category.slug", Value: 1},
			{Key: "tags._id", Value: 1}, {Key: "tags.name", Value: 1}, {Key: "tags.slug", Value: 1},
		}}},
	)
	return pipeline
}

// fetchPost re-reads a single post with its references expanded. Returns
// nil without error when the id matches nothing.
func (h *Handler) fetchPost(ctx context.Context, id primitive.ObjectID) (*models.PostDetail, error) {
	cursor, err := h.DB.Posts.Aggregate(ctx, postPipeline(bson.D{{Key: "_id", Value: id}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.PostDetail
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

func (h *Handler) ListPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	cursor, err := h.DB.Posts.Aggregate(ctx, postPipeline(nil))
	if err != nil {
		log.Printf("[ListPosts] aggregate error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	defer cursor.Close(ctx)

	var posts []models.PostDetail
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("[ListPosts] decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	if posts == nil {
		posts = []models.PostDetail{}
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetPost(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	post, err := h.fetchPost(ctx, id)
	if err != nil {
		log.Printf("[GetPost] fetch error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, post)
}

// missingCreateFields lists the required fields a create payload lacks.
// A field supplied as empty/whitespace counts as missing here.
func missingCreateFields(in *postInput) []string {
	var missing []string
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		missing = append(missing, "title")
	}
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		missing = append(missing, "content")
	}
	if in.Category == nil {
		missing = append(missing, "category")
	}
	if !in.HasSEO {
		missing = append(missing, "seo")
	}
	return missing
}

func (h *Handler) CreatePost(c *gin.Context) {
	authorID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	in, err := bindPostInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if missing := missingCreateFields(in); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing required fields",
			"details": strings.Join(missing, ", "),
		})
		return
	}

	postSlug := ""
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		postSlug = *in.Slug
	} else {
		postSlug = slug.Make(*in.Title)
	}
	if postSlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": "could not derive a slug from the title; supply one explicitly",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	featuredImage, err := h.uploadFeaturedImage(ctx, c)
	if err != nil {
		log.Printf("[CreatePost] upload error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload featured image"})
		return
	}

	now := time.Now().Unix()
	post := models.Post{
		ID:            primitive.NewObjectID(),
		Title:         *in.Title,
		Slug:          postSlug,
		Content:       *in.Content,
		Author:        authorID,
		Category:      *in.Category,
		Tags:          in.Tags,
		SEO:           in.SEO,
		FeaturedImage: featuredImage,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if post.Tags == nil {
		post.Tags = []primitive.ObjectID{}
	}
	if in.Published != nil {
		post.Published = *in.Published
	}

	if _, err := h.DB.Posts.InsertOne(ctx, post); err != nil {
		log.Printf("[CreatePost] insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	created, err := h.fetchPost(ctx, post.ID)
	if err != nil || created == nil {
		log.Printf("[CreatePost] re-read error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch created post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    created,
	})
}

// ownerFilter scopes a mutation to the target post, and to the caller's own
// posts unless they are an admin. Embedding ownership in the write filter
// keeps load-check-save atomic.
func ownerFilter(id, caller primitive.ObjectID, admin bool) bson.M {
	filter := bson.M{"_id": id}
	if !admin {
		filter["author"] = caller
	}
	return filter
}

// classifyMutationMiss turns a no-match mutation into 404 or 403.
func (h *Handler) classifyMutationMiss(ctx context.Context, c *gin.Context, id primitive.ObjectID) {
	count, err := h.DB.Posts.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		log.Printf("[classifyMutationMiss] count error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to modify this post"})
}

func (h *Handler) UpdatePost(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID", "details": err.Error()})
		return
	}

	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	in, err := bindPostInput(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	// Required fields may be replaced but never cleared.
	for field, v := range map[string]*string{"title": in.Title, "slug": in.Slug, "content": in.Content} {
		if v != nil && strings.TrimSpace(*v) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": field + " cannot be empty",
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	set := bson.M{"updatedAt": time.Now().Unix()}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Slug != nil {
		set["slug"] = *in.Slug
	}
	if in.Content != nil {
		set["content"] = *in.Content
	}
	if in.Category != nil {
		set["category"] = *in.Category
	}
	if in.HasTags {
		set["tags"] = in.Tags
	}
	if in.HasSEO {
		set["seo"] = in.SEO
	}
	if in.Published != nil {
		set["published"] = *in.Published
	}

	if hasFeaturedImage(c) {
		// Check ownership before paying for the upload; the filtered write
		// below remains authoritative.
		count, err := h.DB.Posts.CountDocuments(ctx, ownerFilter(id, caller, isAdmin(c)))
		if err != nil {
			log.Printf("[UpdatePost] count error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if count == 0 {
			h.classifyMutationMiss(ctx, c, id)
			return
		}

		featuredImage, err := h.uploadFeaturedImage(ctx, c)
		if err != nil {
			log.Printf("[UpdatePost] upload error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload featured image"})
			return
		}
		set["featuredImage"] = featuredImage
	}

	err = h.DB.Posts.FindOneAndUpdate(
		ctx,
		ownerFilter(id, caller, isAdmin(c)),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Err()
	if err == mongo.ErrNoDocuments {
		h.classifyMutationMiss(ctx, c, id)
		return
	}
	if err != nil {
		log.Printf("[UpdatePost] update error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	updated, err := h.fetchPost(ctx, id)
	if err != nil || updated == nil {
		log.Printf("[UpdatePost] re-read error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch updated post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post updated successfully",
		"post":    updated,
	})
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID", "details": err.Error()})
		return
	}

	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	err = h.DB.Posts.FindOneAndDelete(ctx, ownerFilter(id, caller, isAdmin(c))).Err()
	if err == mongo.ErrNoDocuments {
		h.classifyMutationMiss(ctx, c, id)
		return
	}
	if err != nil {
		log.Printf("[DeletePost] delete error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
