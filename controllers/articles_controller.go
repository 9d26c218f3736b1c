package controllers

import (
	"context"
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"conduit/models"
	"conduit/utils/formaterror"
	httpctx "conduit/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type newArticleRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

type updateArticleRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Body        *string `json:"body"`
}

// CreateArticle creates an article owned by the requester. The slug is
// derived from the title once, here, and duplicate slugs are conflicts.
func (server *Server) CreateArticle(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}
	var body struct {
		Article newArticleRequest `json:"article"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("body", "cannot parse request body"),
		})
		return
	}

	article := models.Article{
		UserID:      uid,
		Title:       body.Article.Title,
		Description: body.Article.Description,
		Body:        body.Article.Body,
		TagList:     body.Article.TagList,
	}
	article.Prepare()
	if errorMessages := article.Validate(); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	if _, err := article.FindArticleBySlug(server.DB, article.Slug); err == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("title", "an article with this title already exists"),
		})
		return
	}

	created, err := article.SaveArticle(server.DB)
	if err != nil {
		if formaterror.IsUniqueViolation(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": formaterror.New("title", "an article with this title already exists"),
			})
			return
		}
		server.internalError(c, err)
		return
	}
	server.invalidateTagCache(c.Request.Context())

	payload, err := server.articlePayload(created, uid, true)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"article": payload})
}

func (server *Server) GetArticle(c *gin.Context) {
	article, err := (&models.Article{}).FindArticleBySlug(server.DB, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("article", "not found")})
		return
	}

	viewerID, authed := httpctx.CurrentUserID(c)
	payload, err := server.articlePayload(article, viewerID, authed)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": payload})
}

// UpdateArticle changes only the provided fields, scoped to the owner.
// Someone else's article looks exactly like a missing one. The slug is
// never recomputed.
func (server *Server) UpdateArticle(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}
	var body struct {
		Article updateArticleRequest `json:"article"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("body", "cannot parse request body"),
		})
		return
	}

	updates := map[string]interface{}{}
	if body.Article.Title != nil {
		title := html.EscapeString(strings.TrimSpace(*body.Article.Title))
		if title == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.New("title", "title is required")})
			return
		}
		updates["title"] = title
	}
	if body.Article.Description != nil {
		updates["description"] = html.EscapeString(strings.TrimSpace(*body.Article.Description))
	}
	if body.Article.Body != nil {
		updates["body"] = strings.TrimSpace(*body.Article.Body)
	}

	if len(updates) == 0 {
		server.GetArticle(c)
		return
	}

	updated, err := (&models.Article{}).UpdateArticle(server.DB, c.Param("slug"), uid, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("article", "not found")})
			return
		}
		if formaterror.IsUniqueViolation(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": formaterror.New("title", "an article with this title already exists"),
			})
			return
		}
		server.internalError(c, err)
		return
	}
	server.invalidateTagCache(c.Request.Context())

	payload, err := server.articlePayload(updated, uid, true)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": payload})
}

// DeleteArticle removes an owned article. Zero rows affected means the slug
// is absent or not owned by the requester; both surface as not permitted.
func (server *Server) DeleteArticle(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}

	deleted, err := (&models.Article{}).DeleteArticle(server.DB, c.Param("slug"), uid)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusForbidden, gin.H{
			"errors": formaterror.New("article", "delete operation not permitted or the article does not exist"),
		})
		return
	}
	server.invalidateTagCache(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{"article": gin.H{"slug": c.Param("slug")}})
}

// ListArticles returns one filtered page, newest first.
func (server *Server) ListArticles(c *gin.Context) {
	filters := articleFiltersFromQuery(c)

	articles, err := (&models.Article{}).ListArticles(server.DB, filters)
	if err != nil {
		server.internalError(c, err)
		return
	}

	viewerID, authed := httpctx.CurrentUserID(c)
	payloads, err := server.articlePayloads(articles, viewerID, authed)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": payloads, "articlesCount": len(payloads)})
}

// FeedArticles lists articles authored by users the requester follows.
func (server *Server) FeedArticles(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}
	filters := articleFiltersFromQuery(c)

	articles, err := (&models.Article{}).FeedArticles(server.DB, uid, filters)
	if err != nil {
		server.internalError(c, err)
		return
	}

	payloads, err := server.articlePayloads(articles, uid, true)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": payloads, "articlesCount": len(payloads)})
}

// FavoriteArticle marks the article as a favorite; repeats are no-ops.
func (server *Server) FavoriteArticle(c *gin.Context) {
	server.setFavorite(c, true)
}

// UnfavoriteArticle removes the mark; repeats are no-ops.
func (server *Server) UnfavoriteArticle(c *gin.Context) {
	server.setFavorite(c, false)
}

func (server *Server) setFavorite(c *gin.Context, favorited bool) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}

	article, err := (&models.Article{}).FindArticleBySlug(server.DB, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("article", "not found")})
		return
	}
	// The author must still exist for the projection.
	if _, err := (&models.User{}).FindUserByID(server.DB, article.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("article", "not found")})
		return
	}

	favorite := &models.ArticleFavorite{}
	if favorited {
		err = favorite.Favorite(server.DB, article.ID, uid)
	} else {
		err = favorite.Unfavorite(server.DB, article.ID, uid)
	}
	if err != nil {
		server.internalError(c, err)
		return
	}

	payload, err := server.articlePayload(article, uid, true)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": payload})
}

// articleFiltersFromQuery parses list parameters leniently: garbage numbers
// become defaults, out-of-range values are clamped by the store.
func articleFiltersFromQuery(c *gin.Context) models.ArticleFilters {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return models.ArticleFilters{
		Tag:       c.Query("tag"),
		Author:    c.Query("author"),
		Favorited: c.Query("favorited"),
		Limit:     limit,
		Offset:    offset,
	}
}

func (server *Server) invalidateTagCache(ctx context.Context) {
	if err := server.Cache.Delete(ctx, tagCacheKey); err != nil {
		server.Log.Warn().Err(err).Msg("tag cache invalidation failed")
	}
}
