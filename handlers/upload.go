package handlers

import (
	"context"
	"os"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// hasFeaturedImage reports whether the request carries a featuredImage file.
func hasFeaturedImage(c *gin.Context) bool {
	file, _, err := c.Request.FormFile("featuredImage")
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// uploadFeaturedImage pushes the optional "featuredImage" form file to
// Cloudinary and returns its URL. No file attached returns "" with no error.
func (h *Handler) uploadFeaturedImage(ctx context.Context, c *gin.Context) (string, error) {
	file, _, err := c.Request.FormFile("featuredImage")
	if err != nil {
		// No file in the request (or not a multipart request at all).
		return "", nil
	}
	defer file.Close()

	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	uploadParams := uploader.UploadParams{
		Folder:         "inkwell/posts",
		PublicID:       uuid.NewString(),
		Transformation: "c_limit,w_1600,h_1600,q_auto",
	}

	uploadResult, err := cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
