package controllers

import (
	"errors"
	"net/http"

	"conduit/models"
	"conduit/utils/formaterror"
	httpctx "conduit/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// GetProfile returns a user's public profile. The following flag is
// viewer-relative; anonymous viewers always see false.
func (server *Server) GetProfile(c *gin.Context) {
	user, err := (&models.User{}).FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("profile", "not found")})
		return
	}

	viewerID, authed := httpctx.CurrentUserID(c)
	profile, err := server.profilePayload(user, viewerID, authed)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// FollowUser follows the named user. Following twice is a no-op; following
// yourself is a validation error.
func (server *Server) FollowUser(c *gin.Context) {
	requesterID, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}

	target, err := (&models.User{}).FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("profile", "not found")})
		return
	}

	if err := (&models.Follow{}).FollowUser(server.DB, requesterID, target.ID); err != nil {
		if errors.Is(err, models.ErrSelfFollow) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": formaterror.New("profile", "cannot follow yourself"),
			})
			return
		}
		server.internalError(c, err)
		return
	}

	profile, err := server.profilePayload(target, requesterID, true)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UnfollowUser removes the relationship; absent relationships are a no-op.
func (server *Server) UnfollowUser(c *gin.Context) {
	requesterID, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}

	target, err := (&models.User{}).FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("profile", "not found")})
		return
	}

	if err := (&models.Follow{}).UnfollowUser(server.DB, requesterID, target.ID); err != nil {
		server.internalError(c, err)
		return
	}

	profile, err := server.profilePayload(target, requesterID, true)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
