package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/trackboard/backend/internal/config"
	"github.com/trackboard/backend/internal/handler"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/internal/router"
	"github.com/trackboard/backend/internal/service"
	"github.com/trackboard/backend/internal/sse"
	"github.com/trackboard/backend/pkg/token"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	tokens := token.NewManager(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())
	hub := sse.NewHub(rdb)

	authService := service.NewAuthService(db, tokens)
	projectService := service.NewProjectService(db)
	boardService := service.NewBoardService(db)
	ticketService := service.NewTicketService(db, hub)
	commentService := service.NewCommentService(db)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()
	secure := cfg.Server.Mode == gin.ReleaseMode

	router.Setup(r, router.Deps{
		DB:             db,
		Tokens:         tokens,
		ProjectService: projectService,
		AuthHandler:    handler.NewAuthHandler(authService, secure),
		ProjectHandler: handler.NewProjectHandler(projectService),
		BoardHandler:   handler.NewBoardHandler(boardService),
		TicketHandler:  handler.NewTicketHandler(ticketService),
		CommentHandler: handler.NewCommentHandler(commentService, ticketService),
		EventsHandler:  handler.NewEventsHandler(hub),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
