package controllers

import (
	"time"

	"conduit/models"
)

// Response payloads use lower-camel-case field names and the RealWorld
// envelopes regardless of internal naming.

type profileResponse struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

type userResponse struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type articleResponse struct {
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Body           string          `json:"body"`
	TagList        []string        `json:"tagList"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	Favorited      bool            `json:"favorited"`
	FavoritesCount int64           `json:"favoritesCount"`
	Author         profileResponse `json:"author"`
}

type commentResponse struct {
	ID        uint            `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Body      string          `json:"body"`
	Author    profileResponse `json:"author"`
}

func (server *Server) userPayload(user *models.User, token string) userResponse {
	return userResponse{
		Email:    user.Email,
		Token:    token,
		Username: user.Username,
		Bio:      user.Bio,
		Image:    user.Image,
	}
}

// profilePayload resolves the viewer-relative following flag. Anonymous
// viewers always see false and never hit the follow graph.
func (server *Server) profilePayload(user *models.User, viewerID uint, authed bool) (profileResponse, error) {
	following := false
	if authed {
		var err error
		following, err = (&models.Follow{}).IsFollowing(server.DB, viewerID, user.ID)
		if err != nil {
			return profileResponse{}, err
		}
	}
	return profileResponse{
		Username:  user.Username,
		Bio:       user.Bio,
		Image:     user.Image,
		Following: following,
	}, nil
}

func (server *Server) articlePayload(article *models.Article, viewerID uint, authed bool) (articleResponse, error) {
	favorite := &models.ArticleFavorite{}

	favorited := false
	if authed {
		var err error
		favorited, err = favorite.IsFavorited(server.DB, article.ID, viewerID)
		if err != nil {
			return articleResponse{}, err
		}
	}
	count, err := favorite.FavoritesCount(server.DB, article.ID)
	if err != nil {
		return articleResponse{}, err
	}
	author, err := server.profilePayload(&article.Author, viewerID, authed)
	if err != nil {
		return articleResponse{}, err
	}

	return articleResponse{
		Slug:           article.Slug,
		Title:          article.Title,
		Description:    article.Description,
		Body:           article.Body,
		TagList:        article.TagList,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
		Favorited:      favorited,
		FavoritesCount: count,
		Author:         author,
	}, nil
}

// articlePayloads resolves viewer-relative fields row by row. One favorites
// count, one favorited check and one follow check per article per page.
func (server *Server) articlePayloads(articles []models.Article, viewerID uint, authed bool) ([]articleResponse, error) {
	payloads := make([]articleResponse, 0, len(articles))
	for i := range articles {
		payload, err := server.articlePayload(&articles[i], viewerID, authed)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

func (server *Server) commentPayload(comment *models.ArticleComment, viewerID uint, authed bool) (commentResponse, error) {
	author, err := server.profilePayload(&comment.Author, viewerID, authed)
	if err != nil {
		return commentResponse{}, err
	}
	return commentResponse{
		ID:        comment.ID,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		Body:      comment.Body,
		Author:    author,
	}, nil
}
