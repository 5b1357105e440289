package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/barbershop-api/internal/handler"
	"github.com/noah-isme/barbershop-api/internal/middleware"
	"github.com/noah-isme/barbershop-api/internal/models"
	"github.com/noah-isme/barbershop-api/pkg/config"
	"github.com/noah-isme/barbershop-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/barbershop-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/barbershop-api/pkg/middleware/requestid"
	"github.com/noah-isme/barbershop-api/pkg/ratelimit"
)

type routerDeps struct {
	Logger       *zap.Logger
	Tokens       middleware.TokenValidator
	Limiter      ratelimit.Limiter
	Observer     middleware.RequestObserver
	RateRecorder middleware.RateLimitRecorder

	Metrics      *handler.MetricsHandler
	Availability *handler.AvailabilityHandler
	Bookings     *handler.BookingHandler
	Schedule     *handler.ScheduleHandler
	Kiosk        *handler.KioskHandler
}

func newRouter(cfg *config.Config, d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.Observer))

	r.GET("/health", d.Metrics.Health)
	r.GET("/ready", d.Metrics.Ready)
	r.GET("/metrics", d.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/availability/check", d.Availability.Check)
	api.GET("/staff/:id/slots", d.Availability.Slots)

	kiosk := api.Group("/kiosk", middleware.OptionalJWT(d.Tokens), middleware.RateLimit(d.Limiter, "kiosk", d.RateRecorder, d.Logger))
	kiosk.GET("/slots", d.Kiosk.Slots)
	kiosk.POST("/check-in", d.Kiosk.CheckIn)
	kiosk.POST("/walk-ins", d.Kiosk.WalkIn)

	staffRoles := middleware.RequireRoles(models.RoleOwner, models.RoleAdmin, models.RoleBarber)
	bookings := api.Group("/bookings", middleware.JWT(d.Tokens), staffRoles)
	bookings.GET("", d.Bookings.List)
	bookings.GET("/:id", d.Bookings.Get)
	bookings.POST("", d.Bookings.Create)
	bookings.PUT("/:id/schedule", d.Bookings.Reschedule)
	bookings.POST("/:id/cancel", d.Bookings.Cancel)
	bookings.PATCH("/:id/status", d.Bookings.UpdateStatus)

	authed := api.Group("", middleware.JWT(d.Tokens))
	ownStaff := middleware.RBAC(string(models.RoleOwner), string(models.RoleAdmin), middleware.StaffScope)
	managers := middleware.RequireRoles(models.RoleOwner, models.RoleAdmin)

	authed.GET("/staff/:id/working-hours", ownStaff, d.Schedule.ListWorkingHours)
	authed.PUT("/staff/:id/working-hours", managers, d.Schedule.ReplaceWorkingHours)
	authed.GET("/staff/:id/overrides", ownStaff, d.Schedule.ListOverrides)
	authed.POST("/staff/:id/overrides", ownStaff, d.Schedule.CreateOverride)
	authed.DELETE("/overrides/:id", managers, d.Schedule.DeleteOverride)
	authed.GET("/admin/metrics/summary", managers, d.Metrics.Summary)

	return r
}
