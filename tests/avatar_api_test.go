package tests

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"conduit/controllers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is the 8-byte PNG signature, enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func doUploadRequest(t *testing.T, server *controllers.Server, token, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/user/image", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func TestUploadAvatarRequiresAuth(t *testing.T) {
	server := newTestServer(t)

	w := doUploadRequest(t, server, "", "file", "avatar.png", pngHeader)
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestUploadAvatarMissingFile(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "jacob", "jake@jake.jake")

	// Wrong form field name: the handler only reads "file".
	w := doUploadRequest(t, server, token, "attachment", "avatar.png", pngHeader)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	errs := decodeBody(t, w)["errors"].(map[string]interface{})
	messages := errs["file"].([]interface{})
	assert.Equal(t, "invalid file", messages[0])
}

func TestUploadAvatarTooLarge(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "jacob", "jake@jake.jake")

	oversized := make([]byte, 600_000)
	copy(oversized, pngHeader)

	w := doUploadRequest(t, server, token, "file", "avatar.png", oversized)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	errs := decodeBody(t, w)["errors"].(map[string]interface{})
	messages := errs["file"].([]interface{})
	assert.Equal(t, "file too large (<500KB)", messages[0])
}

func TestUploadAvatarRejectsNonImage(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "jacob", "jake@jake.jake")

	w := doUploadRequest(t, server, token, "file", "notes.txt", []byte("definitely not an image"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	errs := decodeBody(t, w)["errors"].(map[string]interface{})
	messages := errs["file"].([]interface{})
	assert.Equal(t, "not an image", messages[0])
}

func TestUploadAvatarWithoutStorageConfigured(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "jacob", "jake@jake.jake")

	// A real image passes the sniff, then fails on the missing bucket, never
	// reaching S3. The user's image stays untouched.
	w := doUploadRequest(t, server, token, "file", "avatar.png", pngHeader)
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	w = doRequest(t, server, http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decodeBody(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "", user["image"])
}
