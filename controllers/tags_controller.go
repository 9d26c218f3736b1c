package controllers

import (
	"encoding/json"
	"net/http"

	"conduit/models"

	"github.com/gin-gonic/gin"
)

const tagCacheKey = "tags"

// GetTags returns every tag in use, de-duplicated and sorted. The list is
// served from Redis when available; article writes invalidate it.
func (server *Server) GetTags(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := server.Cache.Get(ctx, tagCacheKey); err == nil && cached != "" {
		var tags []string
		if json.Unmarshal([]byte(cached), &tags) == nil {
			c.JSON(http.StatusOK, gin.H{"tags": tags})
			return
		}
	}

	tags, err := (&models.Article{}).DistinctTags(server.DB)
	if err != nil {
		server.internalError(c, err)
		return
	}

	if encoded, err := json.Marshal(tags); err == nil {
		if err := server.Cache.Set(ctx, tagCacheKey, encoded); err != nil {
			server.Log.Warn().Err(err).Msg("tag cache write failed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
