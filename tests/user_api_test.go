package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	server := newTestServer(t)

	w := doRequest(t, server, http.MethodPost, "/api/users", "", map[string]interface{}{
		"user": map[string]string{
			"username": "jacob",
			"email":    "jake@jake.jake",
			"password": "jakejake",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "jacob", user["username"])
	assert.Equal(t, "jake@jake.jake", user["email"])
	assert.NotEmpty(t, user["token"])
	assert.Equal(t, "", user["bio"])
	assert.Equal(t, "", user["image"])

	// Password must round-trip through login, not be stored as given.
	w = doRequest(t, server, http.MethodPost, "/api/users/login", "", map[string]interface{}{
		"user": map[string]string{
			"email":    "jake@jake.jake",
			"password": "jakejake",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decodeBody(t, w)
	user = body["user"].(map[string]interface{})
	assert.Equal(t, "jacob", user["username"])
	assert.NotEmpty(t, user["token"])
}

func TestRegisterValidation(t *testing.T) {
	server := newTestServer(t)

	cases := []struct {
		name  string
		user  map[string]string
		field string
	}{
		{"missing username", map[string]string{"email": "a@b.co", "password": "secret1"}, "username"},
		{"missing email", map[string]string{"username": "anna", "password": "secret1"}, "email"},
		{"bad email", map[string]string{"username": "anna", "email": "not-an-email", "password": "secret1"}, "email"},
		{"short password", map[string]string{"username": "anna", "email": "a@b.co", "password": "abc"}, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, server, http.MethodPost, "/api/users", "", map[string]interface{}{"user": tc.user})
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			body := decodeBody(t, w)
			errs := body["errors"].(map[string]interface{})
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server, "jacob", "jake@jake.jake")

	for _, user := range []map[string]string{
		{"username": "jacob", "email": "other@jake.jake", "password": "jakejake"},
		{"username": "other", "email": "jake@jake.jake", "password": "jakejake"},
	} {
		w := doRequest(t, server, http.MethodPost, "/api/users", "", map[string]interface{}{"user": user})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		body := decodeBody(t, w)
		errs := body["errors"].(map[string]interface{})
		messages := errs["user"].([]interface{})
		assert.Equal(t, "user with this email or username already exists", messages[0])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server, "jacob", "jake@jake.jake")

	for _, creds := range []map[string]string{
		{"email": "jake@jake.jake", "password": "wrongpass"},
		{"email": "nobody@jake.jake", "password": "password123"},
	} {
		w := doRequest(t, server, http.MethodPost, "/api/users/login", "", map[string]interface{}{"user": creds})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		body := decodeBody(t, w)
		errs := body["errors"].(map[string]interface{})
		messages := errs["user"].([]interface{})
		assert.Equal(t, "invalid email or password", messages[0])
	}
}

func TestCurrentUser(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "jacob", "jake@jake.jake")

	w := doRequest(t, server, http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "jacob", user["username"])
	assert.NotEmpty(t, user["token"])
}

func TestCurrentUserUnauthorized(t *testing.T) {
	server := newTestServer(t)

	// No Authorization header at all.
	w := doRequest(t, server, http.MethodGet, "/api/user", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	body := decodeBody(t, w)
	errs := body["errors"].(map[string]interface{})
	messages := errs["header"].([]interface{})
	assert.Equal(t, "missing authorization header", messages[0])

	// Garbage token.
	w = doRequest(t, server, http.MethodGet, "/api/user", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
	body = decodeBody(t, w)
	errs = body["errors"].(map[string]interface{})
	messages = errs["user"].([]interface{})
	assert.Equal(t, "credentials could not be validated", messages[0])
}

func TestUpdateUser(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "jacob", "jake@jake.jake")

	w := doRequest(t, server, http.MethodPut, "/api/user", token, map[string]interface{}{
		"user": map[string]string{
			"bio":   "I like to skateboard",
			"image": "https://i.stack.imgur.com/xHWG8.jpg",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "I like to skateboard", user["bio"])
	assert.Equal(t, "https://i.stack.imgur.com/xHWG8.jpg", user["image"])
	// Fields not in the payload keep their values.
	assert.Equal(t, "jacob", user["username"])
	assert.Equal(t, "jake@jake.jake", user["email"])
}

func TestUpdateUserPasswordRoundTrip(t *testing.T) {
	server := newTestServer(t)
	token := registerUser(t, server, "jacob", "jake@jake.jake")

	w := doRequest(t, server, http.MethodPut, "/api/user", token, map[string]interface{}{
		"user": map[string]string{"password": "newpassword"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, server, http.MethodPost, "/api/users/login", "", map[string]interface{}{
		"user": map[string]string{"email": "jake@jake.jake", "password": "newpassword"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(t, server, http.MethodPost, "/api/users/login", "", map[string]interface{}{
		"user": map[string]string{"email": "jake@jake.jake", "password": "password123"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestUpdateUserTakenIdentity(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server, "jacob", "jake@jake.jake")
	token := registerUser(t, server, "anna", "anna@example.com")

	w := doRequest(t, server, http.MethodPut, "/api/user", token, map[string]interface{}{
		"user": map[string]string{"username": "jacob"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	body := decodeBody(t, w)
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "username")

	w = doRequest(t, server, http.MethodPut, "/api/user", token, map[string]interface{}{
		"user": map[string]string{"email": "jake@jake.jake"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	body = decodeBody(t, w)
	errs = body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "email")

	// Submitting your own current username is not a conflict.
	w = doRequest(t, server, http.MethodPut, "/api/user", token, map[string]interface{}{
		"user": map[string]string{"username": "anna"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
