package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/config"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/api/social"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/api/user"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/cache"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/middleware"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/repository/mysql"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/service"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/storage"
	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		config.AppConfig.DBName)

	// 连接数据库
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 测试数据库连接
	if err = db.Ping(); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	util.Logger.Info("数据库连接池配置完成")

	// 初始化帖子缓存
	feedCache, err := cache.NewRedisStore(
		config.AppConfig.RedisAddr,
		config.AppConfig.RedisPassword,
		config.AppConfig.RedisDB,
		time.Duration(config.AppConfig.FeedCacheTTL)*time.Second,
	)
	if err != nil {
		util.Logger.Fatal("连接Redis失败", zap.Error(err))
	}
	util.Logger.Info("帖子缓存初始化完成",
		zap.String("addr", config.AppConfig.RedisAddr),
		zap.Int("ttl_seconds", config.AppConfig.FeedCacheTTL))

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("username", util.ValidateUsername)
	}

	// 确保上传文件夹存在
	ensureUploadsFolder()

	// 初始化存储后端
	uploader, err := storage.New()
	if err != nil {
		util.Logger.Fatal("初始化存储后端失败", zap.Error(err))
	}

	// 初始化存储库、服务和处理器
	userRepo := mysql.NewUserRepository(db)
	postRepo := mysql.NewPostRepository(db)
	followRepo := mysql.NewFollowRepository(db)

	userService := service.NewUserService(userRepo)
	feedService := service.NewFeedService(postRepo, followRepo, userRepo)
	socialService := service.NewSocialService(postRepo, followRepo, userRepo, feedCache)

	authHandler := user.NewAuthHandler(userService)
	profileHandler := user.NewProfileHandler(userService, feedService, uploader)
	postHandler := social.NewPostHandler(feedService, socialService, feedCache, uploader)
	commentHandler := social.NewCommentHandler(feedService, socialService)
	followHandler := social.NewFollowHandler(socialService)

	// 设置 Gin 路由
	r := gin.Default()

	r.Use(middleware.RecoveryMiddleware())

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		"Access-Control-Allow-Origin",
	}
	r.Use(cors.New(corsConfig))

	// 静态文件的CORS单独处理
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
			c.Header("Access-Control-Allow-Origin", config.AppConfig.FrontendURL)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(200)
				return
			}
		}
		c.Next()
	})

	// 配置静态文件服务
	r.Static("/uploads", config.AppConfig.LocalStoragePath)

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 认证相关路由
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 需要认证的用户路由
		authorized := api.Group("/")
		authorized.Use(middleware.AuthMiddleware(userService))
		{
			authorized.POST("/logout", authHandler.Logout)
			authorized.GET("/me", profileHandler.GetMyProfile)
			authorized.PUT("/me", profileHandler.UpdateProfile)
			authorized.POST("/me/avatar", profileHandler.UploadAvatar)
		}

		// 帖子列表和详情：匿名可读，登录后带上查看者身份解析 is_liked
		api.GET("/posts", middleware.OptionalAuthMiddleware(userService), postHandler.ListPosts)
		api.GET("/posts/:id", middleware.OptionalAuthMiddleware(userService), postHandler.GetPost)
		api.GET("/posts/user/:id", middleware.OptionalAuthMiddleware(userService), postHandler.ListUserPosts)
		api.GET("/posts/followings", middleware.AuthMiddleware(userService), postHandler.ListFollowingPosts)

		// 帖子写操作
		api.POST("/posts", middleware.AuthMiddleware(userService), postHandler.CreatePost)
		api.PUT("/posts/:id", middleware.AuthMiddleware(userService), postHandler.UpdatePost)
		api.DELETE("/posts/:id", middleware.AuthMiddleware(userService), postHandler.DeletePost)
		api.POST("/posts/:id/like", middleware.AuthMiddleware(userService), postHandler.LikePost)

		// 评论
		api.GET("/posts/:id/comments", commentHandler.ListComments)
		api.POST("/posts/:id/comments", middleware.AuthMiddleware(userService), commentHandler.CreateComment)
		api.DELETE("/posts/:id/comments/:commentId", middleware.AuthMiddleware(userService), commentHandler.DeleteComment)

		// 关注关系
		api.GET("/users/:id", profileHandler.GetUserProfile)
		api.POST("/users/:id/follow", middleware.AuthMiddleware(userService), followHandler.FollowToggle)
		api.GET("/users/:id/followers", followHandler.GetFollowers)
		api.GET("/users/:id/following", followHandler.GetFollowing)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动，监听端口 :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// 确保上传文件夹存在
func ensureUploadsFolder() {
	uploadsPath := config.AppConfig.LocalStoragePath
	if err := os.MkdirAll(uploadsPath, 0755); err != nil {
		util.Logger.Fatal("创建上传文件夹失败", zap.Error(err), zap.String("path", uploadsPath))
	}
	util.Logger.Info("上传文件夹已创建或已存在", zap.String("path", uploadsPath))
}
