package controllers

import (
	"net/http"

	"conduit/middlewares"

	"github.com/gin-gonic/gin"
)

func (s *Server) initializeRoutes() {
	required := middlewares.TokenAuthMiddleware(s.Tokens, s.DB)
	optional := middlewares.OptionalAuthMiddleware(s.Tokens, s.DB)

	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.Router.Group("/api")
	{
		// Users
		api.POST("/users", middlewares.LoginRateLimitMiddleware(), s.Register)
		api.POST("/users/login", middlewares.LoginRateLimitMiddleware(), s.Login)
		api.GET("/user", required, s.CurrentUser)
		api.PUT("/user", required, s.UpdateUser)
		api.POST("/user/image", required, s.UploadAvatar)

		// Profiles
		api.GET("/profiles/:username", optional, s.GetProfile)
		api.POST("/profiles/:username/follow", required, s.FollowUser)
		api.DELETE("/profiles/:username/follow", required, s.UnfollowUser)

		// Articles
		api.GET("/articles", optional, s.ListArticles)
		api.GET("/articles/feed", required, s.FeedArticles)
		api.POST("/articles", required, s.CreateArticle)
		api.GET("/articles/:slug", optional, s.GetArticle)
		api.PUT("/articles/:slug", required, s.UpdateArticle)
		api.DELETE("/articles/:slug", required, s.DeleteArticle)
		api.POST("/articles/:slug/favorite", required, s.FavoriteArticle)
		api.DELETE("/articles/:slug/favorite", required, s.UnfavoriteArticle)

		// Comments
		api.GET("/articles/:slug/comments", optional, s.GetComments)
		api.POST("/articles/:slug/comments", required, s.AddComment)
		api.DELETE("/articles/:slug/comments/:id", required, s.DeleteComment)

		// Tags
		api.GET("/tags", s.GetTags)
	}
}
