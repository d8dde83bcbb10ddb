package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-share/internal/access"
	"github.com/iliyamo/todo-share/internal/config"
	"github.com/iliyamo/todo-share/internal/database"
	"github.com/iliyamo/todo-share/internal/handler"
	"github.com/iliyamo/todo-share/internal/middleware"
	"github.com/iliyamo/todo-share/internal/queue"
	"github.com/iliyamo/todo-share/internal/repository"
	"github.com/iliyamo/todo-share/internal/router"
	"github.com/iliyamo/todo-share/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}

	store, err := storage.New(cfg.UploadDir)
	if err != nil {
		log.Fatalf("attachment store init failed: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	lists := repository.NewListRepo(db)
	todos := repository.NewTodoRepo(db)
	docs := repository.NewDocumentRepo(db)
	evaluator := access.NewEvaluator(lists, todos)

	e := echo.New()

	// Redis-backed rate limiting; nil client degrades to pass-through.
	// The limiter covers the /v1 surface only, so health probes are
	// never throttled.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, limiter)
	router.RegisterAPI(e,
		handler.NewListHandler(lists, users, evaluator),
		handler.NewTodoHandler(todos, docs, evaluator, store),
		cfg.JWTSecret,
		limiter,
	)

	// Background consumer turns invite events into logs/invites.log.
	go func() {
		if err := queue.StartInviteConsumer(); err != nil {
			log.Printf("invite consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
