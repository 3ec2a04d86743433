package app

import (
	"todoapp/internal/auth"
	"todoapp/internal/cache"
	"todoapp/internal/config"
	"todoapp/internal/handlers"
	"todoapp/internal/repo"
	"todoapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, log *zap.Logger, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	sessionStore := auth.NewStore(rdb, cfg.Admin.SessionTTL.Duration())
	authHandler := handlers.NewAuthHandler(sessionStore, cfg.Admin.PasswordHash)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	activityRepo := repo.NewPGActivityRepo(db)
	activitySvc := service.NewActivityService(activityRepo)

	todoRepo := repo.NewPGTodoRepo(db)
	todoCache := cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
	todoSvc := service.NewTodoService(todoRepo, activitySvc, todoCache, log)

	todoHandler := handlers.NewTodoHandler(todoSvc)
	activityHandler := handlers.NewActivityHandler(activitySvc)

	api.POST("/todos", todoHandler.Create)
	api.GET("/todos", todoHandler.List)
	api.GET("/todos/:id", todoHandler.GetByID)
	api.PATCH("/todos/:id", todoHandler.Update)
	api.DELETE("/todos/:id", todoHandler.Delete)
	api.GET("/todos/:id/activities", activityHandler.ListByTodo)

	api.GET("/activities", activityHandler.List)
	api.GET("/activities/stats", activityHandler.Stats)
	api.GET("/activities/:id", activityHandler.GetByID)

	// Destructive log operations are admin-only.
	admin := api.Group("", auth.RequireSession(sessionStore))
	admin.DELETE("/activities/:id", activityHandler.Delete)
	admin.DELETE("/activities", activityHandler.ClearAll)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Todo Activity API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}
