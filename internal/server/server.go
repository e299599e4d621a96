package server

import (
	"backend-picshare/internal/apperr"
	"backend-picshare/internal/asset"
	"backend-picshare/internal/auth"
	"backend-picshare/internal/cache"
	"backend-picshare/internal/comment"
	"backend-picshare/internal/config"
	"backend-picshare/internal/events"
	"backend-picshare/internal/feed"
	"backend-picshare/internal/post"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Logger zerolog.Logger
	// Cleanup is nil when no asset store is configured; tasks then stay
	// pending until a process with credentials drains them.
	Cleanup *asset.Worker
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, publisher events.Publisher, log zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.FiberHandler(log)})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Logger: log,
	}

	registerRoutes(s, publisher)
	return s
}

func registerRoutes(s *Server, publisher events.Publisher) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB)
	s.App.Use(auth.NewGuard(authSvc).Middleware())

	feedCache := cache.NewFeedCache(s.Redis, s.Cfg.FeedCacheTTL)
	dispatcher := events.NewDispatcher(publisher, feedCache, s.Logger)

	queue := asset.NewQueue(s.DB)
	s.Cleanup = newCleanupWorker(s, queue)

	postSvc := post.NewService(s.DB, queue, dispatcher)
	commentSvc := comment.NewService(s.DB, postSvc, dispatcher)
	feedSvc := feed.NewService(postSvc, commentSvc, authSvc, feedCache, s.Logger)

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)

	posts := s.App.Group("/posts")
	post.RegisterRoutes(posts, postSvc)
	comment.RegisterRoutes(posts, commentSvc)
	feed.RegisterRoutes(posts, feedSvc)
}

func newCleanupWorker(s *Server, queue *asset.Queue) *asset.Worker {
	if s.DB == nil {
		return nil
	}
	if s.Cfg.CloudinaryURL == "" {
		s.Logger.Warn().Msg("CLOUDINARY_URL not set, asset cleanup disabled")
		return nil
	}
	destroyer, err := asset.NewCloudinary(s.Cfg.CloudinaryURL)
	if err != nil {
		s.Logger.Error().Err(err).Msg("asset store client")
		return nil
	}
	return asset.NewWorker(queue, destroyer, s.Logger)
}
