package tests

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndListComments(t *testing.T) {
	server := newTestServer(t)
	authorToken := registerUser(t, server, "author", "author@example.com")
	readerToken := registerUser(t, server, "reader", "reader@example.com")
	createArticle(t, server, authorToken, "Commented Article", nil)

	w := doRequest(t, server, http.MethodPost, "/api/articles/commented-article/comments", readerToken, map[string]interface{}{
		"comment": map[string]string{"body": "First!"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decodeBody(t, w)["comment"].(map[string]interface{})
	assert.Equal(t, "First!", comment["body"])
	commentAuthor := comment["author"].(map[string]interface{})
	assert.Equal(t, "reader", commentAuthor["username"])

	w = doRequest(t, server, http.MethodPost, "/api/articles/commented-article/comments", authorToken, map[string]interface{}{
		"comment": map[string]string{"body": "Thanks for reading"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Anyone can read comments; newest first.
	w = doRequest(t, server, http.MethodGet, "/api/articles/commented-article/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	comments := decodeBody(t, w)["comments"].([]interface{})
	require.Len(t, comments, 2)
	first := comments[0].(map[string]interface{})
	assert.Equal(t, "Thanks for reading", first["body"])
}

func TestAddCommentValidation(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "author", "author@example.com")
	createArticle(t, server, token, "Quiet Article", nil)

	w := doRequest(t, server, http.MethodPost, "/api/articles/quiet-article/comments", token, map[string]interface{}{
		"comment": map[string]string{"body": "   "},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	errs := decodeBody(t, w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "body")

	w = doRequest(t, server, http.MethodPost, "/api/articles/no-such-article/comments", token, map[string]interface{}{
		"comment": map[string]string{"body": "hello"},
	})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = doRequest(t, server, http.MethodPost, "/api/articles/quiet-article/comments", "", map[string]interface{}{
		"comment": map[string]string{"body": "hello"},
	})
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestDeleteComment(t *testing.T) {
	server := newTestServer(t)
	authorToken := registerUser(t, server, "author", "author@example.com")
	readerToken := registerUser(t, server, "reader", "reader@example.com")
	createArticle(t, server, authorToken, "Moderated Article", nil)

	w := doRequest(t, server, http.MethodPost, "/api/articles/moderated-article/comments", readerToken, map[string]interface{}{
		"comment": map[string]string{"body": "Delete me"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decodeBody(t, w)["comment"].(map[string]interface{})
	commentID := comment["id"].(float64)
	path := "/api/articles/moderated-article/comments/" + strconv.Itoa(int(commentID))

	// Even the article's author cannot delete someone else's comment, and
	// the response does not reveal that the comment exists.
	w = doRequest(t, server, http.MethodDelete, path, authorToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	errs := decodeBody(t, w)["errors"].(map[string]interface{})
	messages := errs["comment"].([]interface{})
	assert.Equal(t, "not found", messages[0])

	// The comment is still there.
	w = doRequest(t, server, http.MethodGet, "/api/articles/moderated-article/comments", "", nil)
	require.Len(t, decodeBody(t, w)["comments"].([]interface{}), 1)

	w = doRequest(t, server, http.MethodDelete, path, readerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, server, http.MethodGet, "/api/articles/moderated-article/comments", "", nil)
	require.Len(t, decodeBody(t, w)["comments"].([]interface{}), 0)

	// Deleting again, or with a non-numeric id, is the same 404.
	w = doRequest(t, server, http.MethodDelete, path, readerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	w = doRequest(t, server, http.MethodDelete, "/api/articles/moderated-article/comments/abc", readerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}
