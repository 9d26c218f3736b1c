package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"conduit/models"
	"conduit/security"
	"conduit/utils/fileformat"
	"conduit/utils/formaterror"
	httpctx "conduit/utils/httpctx"

	aws2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/badoux/checkmail"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type newUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

// Register creates a user and returns it with a fresh token.
func (server *Server) Register(c *gin.Context) {
	var body struct {
		User newUserRequest `json:"user"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("body", "cannot parse request body"),
		})
		return
	}

	user := models.User{
		Username: body.User.Username,
		Email:    body.User.Email,
		Password: body.User.Password,
		Bio:      body.User.Bio,
		Image:    body.User.Image,
	}
	user.Prepare()
	if errorMessages := user.Validate(""); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	// Pre-check for a clean message; the unique indexes close the race.
	unique, err := user.IsUnique(server.DB)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if !unique {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("user", "user with this email or username already exists"),
		})
		return
	}

	userCreated, err := user.SaveUser(server.DB)
	if err != nil {
		if formaterror.IsUniqueViolation(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.FormatError(err.Error())})
			return
		}
		server.internalError(c, err)
		return
	}

	token, err := server.Tokens.CreateToken(userCreated.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": server.userPayload(userCreated, token)})
}

// Login authenticates by email and password.
func (server *Server) Login(c *gin.Context) {
	var body struct {
		User loginRequest `json:"user"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("body", "cannot parse request body"),
		})
		return
	}

	user := models.User{Email: body.User.Email, Password: body.User.Password}
	user.Prepare()
	if errorMessages := user.Validate("login"); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	found, err := user.FindUserByEmail(server.DB, user.Email)
	if err != nil || security.VerifyPassword(found.Password, body.User.Password) != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("user", "invalid email or password"),
		})
		return
	}

	token, err := server.Tokens.CreateToken(found.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": server.userPayload(found, token)})
}

// CurrentUser returns the authenticated user's own record.
func (server *Server) CurrentUser(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}
	user, err := (&models.User{}).FindUserByID(server.DB, uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("user", "not found")})
		return
	}

	token, err := server.Tokens.CreateToken(user.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": server.userPayload(user, token)})
}

// UpdateUser applies only the provided fields, re-validating uniqueness of
// any changed email or username before writing.
func (server *Server) UpdateUser(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}
	var body struct {
		User updateUserRequest `json:"user"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": formaterror.New("body", "cannot parse request body"),
		})
		return
	}

	current, err := (&models.User{}).FindUserByID(server.DB, uid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("user", "not found")})
		return
	}

	updates := map[string]interface{}{}

	if body.User.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*body.User.Email))
		if err := checkmail.ValidateFormat(email); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.New("email", "invalid email")})
			return
		}
		if email != current.Email {
			taken, err := current.TakenBy(server.DB, "email", email, uid)
			if err != nil {
				server.internalError(c, err)
				return
			}
			if taken {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"errors": formaterror.New("email", "user with this email already exists"),
				})
				return
			}
			updates["email"] = email
		}
	}

	if body.User.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*body.User.Username))
		if username == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.New("username", "username is required")})
			return
		}
		if username != current.Username {
			taken, err := current.TakenBy(server.DB, "username", username, uid)
			if err != nil {
				server.internalError(c, err)
				return
			}
			if taken {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"errors": formaterror.New("username", "user with this username already exists"),
				})
				return
			}
			updates["username"] = username
		}
	}

	if body.User.Password != nil {
		if len(*body.User.Password) < 6 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"errors": formaterror.New("password", "password should be at least 6 characters"),
			})
			return
		}
		hashed, err := security.Hash(*body.User.Password)
		if err != nil {
			server.internalError(c, err)
			return
		}
		updates["password"] = string(hashed)
	}

	if body.User.Bio != nil {
		updates["bio"] = strings.TrimSpace(*body.User.Bio)
	}
	if body.User.Image != nil {
		updates["image"] = strings.TrimSpace(*body.User.Image)
	}

	updated, err := current.UpdateAUser(server.DB, uid, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"errors": formaterror.New("user", "not found")})
			return
		}
		if formaterror.IsUniqueViolation(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.FormatError(err.Error())})
			return
		}
		server.internalError(c, err)
		return
	}

	token, err := server.Tokens.CreateToken(updated.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": server.userPayload(updated, token)})
}

// UploadAvatar stores a profile image in S3 and records its public URL as
// the user's image.
func (server *Server) UploadAvatar(c *gin.Context) {
	uid, ok := httpctx.CurrentUserID(c)
	if !ok {
		server.unauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.New("file", "invalid file")})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.New("file", "cannot open file")})
		return
	}
	defer f.Close()

	size := file.Size
	if size > 512_000 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.New("file", "file too large (<500KB)")})
		return
	}
	// ReadFull, not Read: a short read would sniff and upload a truncated body.
	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.New("file", "could not read file")})
		return
	}
	fileType := http.DetectContentType(buf)
	if !strings.HasPrefix(fileType, "image/") {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": formaterror.New("file", "not an image")})
		return
	}

	bucket := server.Config.Storage.Bucket
	region := server.Config.Storage.Region
	if bucket == "" {
		server.Log.Error().Msg("S3_BUCKET is not configured")
		server.internalError(c, errors.New("storage not configured"))
		return
	}

	cfg, err := awsconfig.LoadDefaultConfig(c.Request.Context(), awsconfig.WithRegion(region))
	if err != nil {
		server.internalError(c, err)
		return
	}
	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	key := "avatars/" + fileformat.UniqueFormat(file.Filename)
	_, err = s3Client.PutObject(c.Request.Context(), &s3.PutObjectInput{
		Bucket:        aws2.String(bucket),
		Key:           aws2.String(key),
		Body:          bytes.NewReader(buf),
		ContentLength: aws2.Int64(size),
		ContentType:   aws2.String(fileType),
	})
	if err != nil {
		server.Log.Error().Err(err).Msg("s3 upload failed")
		server.internalError(c, err)
		return
	}

	imageURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
	updated, err := (&models.User{}).UpdateAUser(server.DB, uid, map[string]interface{}{"image": imageURL})
	if err != nil {
		server.internalError(c, err)
		return
	}

	token, err := server.Tokens.CreateToken(updated.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": server.userPayload(updated, token)})
}

func (server *Server) unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"errors": formaterror.New("user", "credentials could not be validated"),
	})
}

func (server *Server) internalError(c *gin.Context, err error) {
	server.Log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("internal error")
	c.JSON(http.StatusInternalServerError, gin.H{
		"errors": formaterror.New("server", "internal server error"),
	})
}
