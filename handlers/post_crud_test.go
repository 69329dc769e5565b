package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/database"
	"inkwell/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// The mongo driver's mock deployment answers each command with the next
// queued response, so these tests drive the real command path (filters,
// update documents, miss classification) without a server.

func mockMT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func postHandler(mt *mtest.T) *Handler {
	return New(&database.DB{Posts: mt.Coll})
}

func postNS(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func authedContext(method, path, body, contentType, userHex, role string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		c.Request.Header.Set("Content-Type", contentType)
	}
	c.Set(middleware.ContextUserID, userHex)
	c.Set(middleware.ContextRole, role)
	return c, w
}

// findAndModifyHit mimics a matched FindOneAndUpdate/FindOneAndDelete.
func findAndModifyHit(doc bson.D) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

// findAndModifyMiss mimics a filter that matched nothing.
func findAndModifyMiss() bson.D {
	return bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}}
}

// countResponse answers the aggregate CountDocuments issues.
func countResponse(mt *mtest.T, n int32) bson.D {
	if n == 0 {
		return mtest.CreateCursorResponse(0, postNS(mt), mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, postNS(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func expandedPostDoc(id, authorID primitive.ObjectID, title, slug string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "slug", Value: slug},
		{Key: "content", Value: "body text"},
		{Key: "seo", Value: bson.D{{Key: "metaTitle", Value: "x"}}},
		{Key: "published", Value: false},
		{Key: "createdAt", Value: int64(1700000000)},
		{Key: "updatedAt", Value: int64(1700000000)},
		{Key: "author", Value: bson.D{{Key: "_id", Value: authorID}, {Key: "name", Value: "Ada"}, {Key: "avatar", Value: "a.png"}}},
		{Key: "category", Value: bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "General"}, {Key: "slug", Value: "general"}}},
		{Key: "tags", Value: bson.A{}},
	}
}

func TestUpdatePost_PartialSetOnlySuppliedFields(t *testing.T) {
	mt := mockMT(t)

	mt.Run("only supplied fields reach the update document", func(mt *mtest.T) {
		postID := primitive.NewObjectID()
		caller := primitive.NewObjectID()

		mt.AddMockResponses(
			findAndModifyHit(bson.D{{Key: "_id", Value: postID}}),
			mtest.CreateCursorResponse(0, postNS(mt), mtest.FirstBatch,
				expandedPostDoc(postID, caller, "Renamed", "hello-world")),
		)

		c, w := authedContext(http.MethodPut, "/api/posts/"+postID.Hex(),
			`{"title": "Renamed"}`, "application/json", caller.Hex(), "author")
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).UpdatePost(c)
		require.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), "Renamed")

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		require.Equal(mt, "findAndModify", ev.CommandName)

		// Omitted fields never appear in $set, so they keep their values.
		set := ev.Command.Lookup("update", "$set").Document()
		elements, err := set.Elements()
		require.NoError(mt, err)
		var keys []string
		for _, e := range elements {
			keys = append(keys, e.Key())
		}
		assert.ElementsMatch(mt, []string{"title", "updatedAt"}, keys)

		// The write filter carries the ownership clause.
		query := ev.Command.Lookup("query").Document()
		assert.Equal(mt, caller, query.Lookup("author").ObjectID())
		assert.Equal(mt, postID, query.Lookup("_id").ObjectID())
	})
}

func TestUpdatePost_NonOwnerForbidden(t *testing.T) {
	mt := mockMT(t)

	mt.Run("non-owner gets 403 and no write lands", func(mt *mtest.T) {
		postID := primitive.NewObjectID()
		caller := primitive.NewObjectID()

		mt.AddMockResponses(
			findAndModifyMiss(),
			countResponse(mt, 1), // the post exists, the filter excluded it
		)

		c, w := authedContext(http.MethodPut, "/api/posts/"+postID.Hex(),
			`{"title": "Hijacked"}`, "application/json", caller.Hex(), "author")
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).UpdatePost(c)
		assert.Equal(mt, http.StatusForbidden, w.Code)
		assert.Contains(mt, w.Body.String(), "not allowed")
	})
}

func TestUpdatePost_NotFound(t *testing.T) {
	mt := mockMT(t)

	mt.Run("missing id classifies as 404", func(mt *mtest.T) {
		postID := primitive.NewObjectID()
		caller := primitive.NewObjectID()

		mt.AddMockResponses(
			findAndModifyMiss(),
			countResponse(mt, 0),
		)

		c, w := authedContext(http.MethodPut, "/api/posts/"+postID.Hex(),
			`{"title": "Renamed"}`, "application/json", caller.Hex(), "author")
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).UpdatePost(c)
		assert.Equal(mt, http.StatusNotFound, w.Code)
		assert.Contains(mt, w.Body.String(), "Post not found")
	})
}

func TestUpdatePost_NonOwnerWithFileNeverUploads(t *testing.T) {
	mt := mockMT(t)

	mt.Run("ownership is checked before the media upload", func(mt *mtest.T) {
		postID := primitive.NewObjectID()
		caller := primitive.NewObjectID()

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("featuredImage", "cover.png")
		require.NoError(mt, err)
		_, err = fw.Write([]byte("not really a png"))
		require.NoError(mt, err)
		require.NoError(mt, mw.Close())

		mt.AddMockResponses(
			countResponse(mt, 0), // ownership pre-check misses
			countResponse(mt, 1), // the post itself exists
		)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/api/posts/"+postID.Hex(), &buf)
		c.Request.Header.Set("Content-Type", mw.FormDataContentType())
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}
		c.Set(middleware.ContextUserID, caller.Hex())
		c.Set(middleware.ContextRole, "author")

		// A 403 here means the handler stopped before touching Cloudinary;
		// reaching the uploader without CLOUDINARY_URL would 500 instead.
		postHandler(mt).UpdatePost(c)
		assert.Equal(mt, http.StatusForbidden, w.Code)
	})
}

func TestDeletePost_Success(t *testing.T) {
	mt := mockMT(t)

	mt.Run("owner delete confirms", func(mt *mtest.T) {
		postID := primitive.NewObjectID()
		caller := primitive.NewObjectID()

		mt.AddMockResponses(findAndModifyHit(bson.D{{Key: "_id", Value: postID}}))

		c, w := authedContext(http.MethodDelete, "/api/posts/"+postID.Hex(),
			"", "", caller.Hex(), "author")
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).DeletePost(c)
		assert.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), "Post deleted successfully")
	})
}

func TestDeletePost_MissingReturnsNotFound(t *testing.T) {
	mt := mockMT(t)

	mt.Run("second delete of the same id is a 404", func(mt *mtest.T) {
		postID := primitive.NewObjectID()
		caller := primitive.NewObjectID()

		mt.AddMockResponses(
			findAndModifyMiss(),
			countResponse(mt, 0),
		)

		c, w := authedContext(http.MethodDelete, "/api/posts/"+postID.Hex(),
			"", "", caller.Hex(), "author")
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).DeletePost(c)
		assert.Equal(mt, http.StatusNotFound, w.Code)
		assert.Contains(mt, w.Body.String(), "Post not found")
	})
}

func TestDeletePost_NonOwnerForbidden(t *testing.T) {
	mt := mockMT(t)

	mt.Run("non-owner delete is a 403", func(mt *mtest.T) {
		postID := primitive.NewObjectID()
		caller := primitive.NewObjectID()

		mt.AddMockResponses(
			findAndModifyMiss(),
			countResponse(mt, 1),
		)

		c, w := authedContext(http.MethodDelete, "/api/posts/"+postID.Hex(),
			"", "", caller.Hex(), "author")
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).DeletePost(c)
		assert.Equal(mt, http.StatusForbidden, w.Code)
	})
}

func TestDeletePost_AdminFilterSkipsOwnership(t *testing.T) {
	mt := mockMT(t)

	mt.Run("admin delete filters by id only", func(mt *mtest.T) {
		postID := primitive.NewObjectID()
		caller := primitive.NewObjectID()

		mt.AddMockResponses(findAndModifyHit(bson.D{{Key: "_id", Value: postID}}))

		c, w := authedContext(http.MethodDelete, "/api/posts/"+postID.Hex(),
			"", "", caller.Hex(), "admin")
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).DeletePost(c)
		require.Equal(mt, http.StatusOK, w.Code)

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		require.Equal(mt, "findAndModify", ev.CommandName)
		query := ev.Command.Lookup("query").Document()
		assert.Equal(mt, postID, query.Lookup("_id").ObjectID())
		_, err := query.LookupErr("author")
		assert.Error(mt, err, "admin filter must not scope by author")
	})
}

func TestGetPost(t *testing.T) {
	mt := mockMT(t)

	mt.Run("found", func(mt *mtest.T) {
		postID := primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, postNS(mt), mtest.FirstBatch,
			expandedPostDoc(postID, primitive.NewObjectID(), "Hello World", "hello-world")))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/posts/"+postID.Hex(), nil)
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).GetPost(c)
		require.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), "Hello World")
		assert.Contains(mt, w.Body.String(), "Ada")
	})

	mt.Run("not found", func(mt *mtest.T) {
		postID := primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, postNS(mt), mtest.FirstBatch))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/posts/"+postID.Hex(), nil)
		c.Params = gin.Params{{Key: "id", Value: postID.Hex()}}

		postHandler(mt).GetPost(c)
		assert.Equal(mt, http.StatusNotFound, w.Code)
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/posts/nope", nil)
		c.Params = gin.Params{{Key: "id", Value: "nope"}}

		postHandler(mt).GetPost(c)
		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})
}

func TestListPosts_Expanded(t *testing.T) {
	mt := mockMT(t)

	mt.Run("returns all posts with references expanded", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, postNS(mt), mtest.FirstBatch,
			expandedPostDoc(primitive.NewObjectID(), primitive.NewObjectID(), "Newest", "newest"),
			expandedPostDoc(primitive.NewObjectID(), primitive.NewObjectID(), "Oldest", "oldest"),
		))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/posts", nil)

		postHandler(mt).ListPosts(c)
		require.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), "Newest")
		assert.Contains(mt, w.Body.String(), "Oldest")
		assert.Contains(mt, w.Body.String(), "general")
	})
}

func TestCreatePost_DerivesSlugAndSetsAuthor(t *testing.T) {
	mt := mockMT(t)

	mt.Run("insert document carries derived slug and caller author", func(mt *mtest.T) {
		caller := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, postNS(mt), mtest.FirstBatch,
				expandedPostDoc(primitive.NewObjectID(), caller, "Hello World", "hello-world")),
		)

		body := `{
			"title": "Hello World",
			"content": "body text",
			"category": "` + categoryHex + `",
			"seo": {"metaTitle": "x"}
		}`
		c, w := authedContext(http.MethodPost, "/api/posts", body,
			"application/json", caller.Hex(), "author")

		postHandler(mt).CreatePost(c)
		require.Equal(mt, http.StatusCreated, w.Code)
		assert.Contains(mt, w.Body.String(), "hello-world")

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		require.Equal(mt, "insert", ev.CommandName)
		doc := ev.Command.Lookup("documents").Array().Index(0).Value().Document()
		assert.Equal(mt, "hello-world", doc.Lookup("slug").StringValue())
		assert.Equal(mt, caller, doc.Lookup("author").ObjectID())
	})
}
