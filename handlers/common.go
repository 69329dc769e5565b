package handlers

import (
	"time"

	"inkwell/database"
	"inkwell/middleware"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dbTimeout = 10 * time.Second

// Handler carries the injected database handle; one instance serves all
// routes.
type Handler struct {
	DB *database.DB
}

func New(db *database.DB) *Handler {
	return &Handler{DB: db}
}

// callerID returns the authenticated caller's id from the gin context.
// Routes behind the JWT middleware always have one; a parse failure means
// the token carried garbage.
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextRole) == middleware.RoleAdmin
}
