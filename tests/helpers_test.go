package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"conduit/config"
	"conduit/controllers"
	"conduit/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer wires a full server over in-memory SQLite: real routes,
// real middlewares, no Postgres and no Redis.
func newTestServer(t *testing.T) *controllers.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// A second pooled connection would get its own empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	server := &controllers.Server{
		DB: db,
		Config: &config.Config{
			Auth: config.AuthConfig{
				Secret:    "test-secret",
				Algorithm: "HS256",
				TTL:       time.Hour,
			},
		},
		Log: zerolog.Nop(),
	}
	if err := server.Bootstrap(); err != nil {
		t.Fatalf("Failed to bootstrap server: %v", err)
	}
	return server
}

func doRequest(t *testing.T, server *controllers.Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Error creating request body: %v", err)
		}
		reader = bytes.NewBuffer(encoded)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("Error creating HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Error unmarshalling response body %q: %v", w.Body.String(), err)
	}
	return body
}

// registerUser creates a user through the API and returns its token.
func registerUser(t *testing.T, server *controllers.Server, username, email string) string {
	t.Helper()
	w := doRequest(t, server, http.MethodPost, "/api/users", "", map[string]interface{}{
		"user": map[string]string{
			"username": username,
			"email":    email,
			"password": "password123",
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("registerUser(%s): status %d body %s", username, w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	user := body["user"].(map[string]interface{})
	return user["token"].(string)
}

// createArticle creates an article through the API and returns its payload.
func createArticle(t *testing.T, server *controllers.Server, token, title string, tags []string) map[string]interface{} {
	t.Helper()
	w := doRequest(t, server, http.MethodPost, "/api/articles", token, map[string]interface{}{
		"article": map[string]interface{}{
			"title":       title,
			"description": "a description",
			"body":        "a body",
			"tagList":     tags,
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("createArticle(%s): status %d body %s", title, w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	return body["article"].(map[string]interface{})
}

// seedArticles inserts articles directly through the store, bypassing HTTP,
// for pagination tests that need volume.
func seedArticles(t *testing.T, server *controllers.Server, ownerID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		article := models.Article{
			UserID:      ownerID,
			Title:       fmt.Sprintf("Seed Article %d", i),
			Description: "seeded",
			Body:        "seeded body",
			TagList:     models.TagList{"seed"},
		}
		article.Prepare()
		if _, err := article.SaveArticle(server.DB); err != nil {
			t.Fatalf("seeding article %d: %v", i, err)
		}
	}
}

func userIDByUsername(t *testing.T, server *controllers.Server, username string) uint {
	t.Helper()
	user, err := (&models.User{}).FindUserByUsername(server.DB, username)
	if err != nil {
		t.Fatalf("looking up %s: %v", username, err)
	}
	return user.ID
}
