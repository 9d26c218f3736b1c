package controllers

import (
	"net/http"

	"conduit/auth"
	"conduit/cache"
	"conduit/config"
	"conduit/middlewares"
	"conduit/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	DB     *gorm.DB
	Router *gin.Engine
	Config *config.Config
	Tokens *auth.TokenService
	Cache  *cache.Cache
	Log    zerolog.Logger
}

// Initialize connects to Postgres and wires the whole server up.
func (server *Server) Initialize(cfg *config.Config, log zerolog.Logger) error {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN(cfg.Production())), &gorm.Config{})
	if err != nil {
		return err
	}
	server.DB = db
	server.Config = cfg
	server.Log = log

	// Redis is optional; the tags endpoint just skips the cache without it.
	tagCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("could not connect to redis, tag cache disabled")
	} else {
		server.Cache = tagCache
	}

	return server.Bootstrap()
}

// Bootstrap migrates the schema and registers middleware and routes. It is
// split from Initialize so tests can run the same wiring over sqlite.
func (server *Server) Bootstrap() error {
	if err := server.DB.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Article{},
		&models.ArticleFavorite{},
		&models.ArticleComment{},
	); err != nil {
		return err
	}
	if err := server.ensureFollowConstraints(); err != nil {
		server.Log.Warn().Err(err).Msg("follow constraints not ensured")
	}

	if server.Tokens == nil {
		server.Tokens = auth.NewTokenService(server.Config.Auth)
	}

	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	server.Router = gin.New()
	server.Router.Use(middlewares.RecoveryMiddleware(server.Log))
	server.Router.Use(middlewares.LoggingMiddleware(server.Log))
	server.Router.Use(middlewares.CORSMiddleware())
	if gin.Mode() != gin.TestMode {
		server.Router.Use(middlewares.RateLimitMiddleware())
	}
	server.initializeRoutes()
	return nil
}

// ensureFollowConstraints backs the application-level self-follow check with
// a database CHECK constraint. Postgres only; the sqlite test schema relies
// on the application check.
func (server *Server) ensureFollowConstraints() error {
	if server.DB.Dialector.Name() != "postgres" {
		return nil
	}
	var count int64
	if err := server.DB.Raw(
		"SELECT COUNT(1) FROM pg_constraint WHERE conname = ?",
		"follows_no_self_follow",
	).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := server.DB.Exec(
			"ALTER TABLE follows ADD CONSTRAINT follows_no_self_follow CHECK (follower_id <> followed_id)",
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (server *Server) Run(addr string) error {
	server.Log.Info().Str("addr", addr).Msg("listening")
	return http.ListenAndServe(addr, server.Router)
}
