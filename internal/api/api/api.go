package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"eventboard/cmd/middleware"
	"eventboard/internal/auth"
	"eventboard/internal/service"
)

type Routers struct {
	Service   service.Service
	Tokens    *auth.JWTManager
	UploadDir string
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/auth/register", r.Service.Register)
	apiGroup.POST("/auth/login", r.Service.Login)

	apiGroup.GET("/geocode", middleware.OptionalAuth(r.Tokens), r.Service.Geocode)

	apiGroup.GET("/events", middleware.OptionalAuth(r.Tokens), r.Service.ListEvents)
	apiGroup.GET("/events/:id", middleware.OptionalAuth(r.Tokens), r.Service.GetEvent)
	apiGroup.POST("/events", middleware.Auth(r.Tokens), r.Service.CreateEvent)
	apiGroup.PUT("/events/:id", middleware.Auth(r.Tokens), r.Service.UpdateEvent)
	apiGroup.DELETE("/events/:id", middleware.Auth(r.Tokens), r.Service.DeleteEvent)

	app.Static("/uploads", r.UploadDir)

	return app
}
