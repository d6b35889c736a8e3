package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	v1 "blogapi/api/v1"
	"blogapi/config"
	"blogapi/dao"
	"blogapi/internal/auth"
	"blogapi/internal/cache"
	myvalidator "blogapi/internal/validator"
	"blogapi/middleware"
	"blogapi/model"
	"blogapi/service"
)

const postCacheTTL = 5 * time.Minute

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "../"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Init redis failed: %v", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Open mysql failed: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Post{}); err != nil {
		log.Fatalf("Migrate failed: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpire)*time.Second)

	userDAO := dao.NewUserDAO(db)
	postDAO := dao.NewPostDAO(db)
	userService := service.NewUserService(userDAO, tokens)
	postService := service.NewPostService(postDAO, userDAO)
	postCache := cache.NewPostCache(rdb, postCacheTTL)
	userAPI := v1.NewUserAPI(userService, postCache)
	postAPI := v1.NewPostAPI(postService, postCache)

	r := gin.Default()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 注册自定义校验器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("phone", myvalidator.IsPhone); err != nil {
			log.Fatalf("Register validator failed: %v", err)
		}
	}

	requireAuth := middleware.AuthMiddleware(tokens)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", userAPI.Register)
		authGroup.POST("/login", userAPI.Login)
		authGroup.PUT("/update", requireAuth, userAPI.UpdateProfile)
	}

	posts := r.Group("/api/posts")
	{
		posts.GET("", postAPI.List)
		posts.GET("/:id", postAPI.Get)
		posts.POST("", requireAuth, postAPI.Create)
		posts.PUT("/:id", requireAuth, postAPI.Update)
		posts.DELETE("/:id", requireAuth, postAPI.Delete)
	}

	if err := r.Run(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
