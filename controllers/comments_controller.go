package controllers

import (
	"net/http"
	"strconv"

	"conduit/models"
	"conduit/utils/formaterror"
	httpctx "conduit/utils/httpctx"

	"github.com/gin-gonic/gin"
)

type newCommentRequest struct {
	Body string `json:"body"`
}

// AddComment attaches a comment to the slugged article.
func (server *Server) AddComment(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}
	var body struct {
		Comment newCommentRequest `json:"comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("body", "cannot parse request body"),
		})
		return
	}

	article, err := (&models.Article{}).FindArticleBySlug(server.DB, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("article", "not found")})
		return
	}

	comment := models.ArticleComment{
		ArticleID: article.ID,
		UserID:    uid,
		Body:      body.Comment.Body,
	}
	comment.Prepare()
	if errorMessages := comment.Validate(); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	created, err := comment.SaveComment(server.DB)
	if err != nil {
		server.internalError(c, err)
		return
	}

	payload, err := server.commentPayload(created, uid, true)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": payload})
}

// GetComments lists an article's comments newest first.
func (server *Server) GetComments(c *gin.Context) {
	article, err := (&models.Article{}).FindArticleBySlug(server.DB, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("article", "not found")})
		return
	}

	comments, err := (&models.ArticleComment{}).GetComments(server.DB, article.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}

	viewerID, authed := httpctx.CurrentUserID(c)
	payloads := make([]commentResponse, 0, len(*comments))
	for i := range *comments {
		payload, err := server.commentPayload(&(*comments)[i], viewerID, authed)
		if err != nil {
			server.internalError(c, err)
			return
		}
		payloads = append(payloads, payload)
	}
	c.JSON(http.StatusOK, gin.H{"comments": payloads})
}

// DeleteComment removes the requester's own comment. A comment that is
// absent or owned by someone else is reported as not found, never as
// forbidden, so nothing leaks about other users' comments.
func (server *Server) DeleteComment(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("comment", "not found")})
		return
	}

	article, err := (&models.Article{}).FindArticleBySlug(server.DB, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("article", "not found")})
		return
	}

	deleted, err := (&models.ArticleComment{}).DeleteComment(server.DB, article.ID, uint(commentID), uid)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("comment", "not found")})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": gin.H{"id": commentID}})
}
