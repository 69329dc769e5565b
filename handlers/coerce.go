package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError names the request field that failed to parse so 400 responses
// can point at it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

// postInput is the normalized create/update payload. Nil pointers and false
// has-flags mean "not supplied"; an empty value supplied on purpose stays
// visible, so partial updates never guess from truthiness.
type postInput struct {
	Title     *string
	Slug      *string
	Content   *string
	Category  *primitive.ObjectID
	Tags      []primitive.ObjectID
	HasTags   bool
	SEO       map[string]interface{}
	HasSEO    bool
	Published *bool
}

// parseTags accepts the JSON text of an array of tag ids. Clients send it
// either as a literal array or as a stringified one; both reach here as the
// same text.
func parseTags(raw string) ([]primitive.ObjectID, error) {
	var hexes []string
	if err := json.Unmarshal([]byte(raw), &hexes); err != nil {
		return nil, &FieldError{Field: "tags", Err: fmt.Errorf("must be a JSON array of tag ids: %w", err)}
	}
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, &FieldError{Field: "tags", Err: fmt.Errorf("%q is not a valid tag id", h)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseSEO(raw string) (map[string]interface{}, error) {
	var seo map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &seo); err != nil {
		return nil, &FieldError{Field: "seo", Err: fmt.Errorf("must be a JSON object: %w", err)}
	}
	if seo == nil {
		return nil, &FieldError{Field: "seo", Err: fmt.Errorf("must be a JSON object, got null")}
	}
	return seo, nil
}

func parsePublished(raw string) (bool, error) {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &FieldError{Field: "published", Err: fmt.Errorf("must be a boolean")}
	}
	return v, nil
}

// rawText unwraps a JSON value that may arrive double-encoded: a quoted
// string is unquoted so its content can be parsed as JSON, anything else is
// returned as-is.
func rawText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(trimmed), nil
}

type postBody struct {
	Title     *string         `json:"title"`
	Slug      *string         `json:"slug"`
	Content   *string         `json:"content"`
	Category  *string         `json:"category"`
	Tags      json.RawMessage `json:"tags"`
	SEO       json.RawMessage `json:"seo"`
	Published json.RawMessage `json:"published"`
}

// bindPostInput reads a create/update payload from either a JSON body or a
// multipart/urlencoded form and applies the shared coercion rules. Both the
// create and update handlers go through here so the string-or-native
// handling of tags/seo/published never diverges.
func bindPostInput(c *gin.Context) (*postInput, error) {
	in := &postInput{}

	switch c.ContentType() {
	case "application/json", "multipart/form-data", "application/x-www-form-urlencoded":
	default:
		// Anything else would bind as an empty form and look like a no-op.
		return nil, &FieldError{Field: "body", Err: fmt.Errorf("unsupported content type %q", c.ContentType())}
	}

	if c.ContentType() == "application/json" {
		var body postBody
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, &FieldError{Field: "body", Err: err}
		}

		in.Title = body.Title
		in.Slug = body.Slug
		in.Content = body.Content

		if body.Category != nil {
			id, err := primitive.ObjectIDFromHex(*body.Category)
			if err != nil {
				return nil, &FieldError{Field: "category", Err: fmt.Errorf("%q is not a valid category id", *body.Category)}
			}
			in.Category = &id
		}

		if len(body.Tags) > 0 && string(bytes.TrimSpace(body.Tags)) != "null" {
			text, err := rawText(body.Tags)
			if err != nil {
				return nil, &FieldError{Field: "tags", Err: err}
			}
			tags, err := parseTags(text)
			if err != nil {
				return nil, err
			}
			in.Tags = tags
			in.HasTags = true
		}

		if len(body.SEO) > 0 && string(bytes.TrimSpace(body.SEO)) != "null" {
			text, err := rawText(body.SEO)
			if err != nil {
				return nil, &FieldError{Field: "seo", Err: err}
			}
			seo, err := parseSEO(text)
			if err != nil {
				return nil, err
			}
			in.SEO = seo
			in.HasSEO = true
		}

		if len(body.Published) > 0 && string(bytes.TrimSpace(body.Published)) != "null" {
			text, err := rawText(body.Published)
			if err != nil {
				return nil, &FieldError{Field: "published", Err: err}
			}
			v, err := parsePublished(text)
			if err != nil {
				return nil, err
			}
			in.Published = &v
		}

		return in, nil
	}

	// Multipart (file uploads) or urlencoded form: every field arrives as a
	// string.
	if err := c.Request.ParseMultipartForm(10 << 20); err != nil && err != http.ErrNotMultipart {
		return nil, &FieldError{Field: "body", Err: err}
	}

	if v, ok := c.GetPostForm("title"); ok {
		in.Title = &v
	}
	if v, ok := c.GetPostForm("slug"); ok {
		in.Slug = &v
	}
	if v, ok := c.GetPostForm("content"); ok {
		in.Content = &v
	}
	if v, ok := c.GetPostForm("category"); ok {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return nil, &FieldError{Field: "category", Err: fmt.Errorf("%q is not a valid category id", v)}
		}
		in.Category = &id
	}
	if v, ok := c.GetPostForm("tags"); ok {
		tags, err := parseTags(v)
		if err != nil {
			return nil, err
		}
		in.Tags = tags
		in.HasTags = true
	}
	if v, ok := c.GetPostForm("seo"); ok {
		seo, err := parseSEO(v)
		if err != nil {
			return nil, err
		}
		in.SEO = seo
		in.HasSEO = true
	}
	if v, ok := c.GetPostForm("published"); ok {
		b, err := parsePublished(v)
		if err != nil {
			return nil, err
		}
		in.Published = &b
	}

	return in, nil
}
