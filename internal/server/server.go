// Package server assembles repositories, services and handlers into the HTTP router.
package server

import (
	"net/http"
	"time"

	"facilityhub/internal/events"
	"facilityhub/internal/middleware"
	"facilityhub/internal/modules/availability"
	"facilityhub/internal/modules/booking"
	"facilityhub/internal/modules/catalog"
	"facilityhub/internal/modules/utilization"
	jwtsvc "facilityhub/internal/pkg/jwt"
	"facilityhub/internal/realtime"
	"facilityhub/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Deps struct {
	DB  *gorm.DB
	JWT *jwtsvc.Service

	// Location is the facility time zone; nil means UTC.
	Location *time.Location

	// Locker is optional. Without it the store alone arbitrates races.
	Locker booking.SlotLocker

	// Publisher receives booking events next to the websocket hub.
	Publisher events.Publisher
	Hub       *realtime.Hub

	CORSOrigins []string
	Clock       func() time.Time
}

func New(d Deps) *gin.Engine {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	hub := d.Hub
	if hub == nil {
		hub = realtime.NewHub()
	}

	resourceRepo := repository.NewResourceRepository(d.DB)
	blackoutRepo := repository.NewBlackoutRepository(d.DB, loc)
	bookingRepo := repository.NewBookingRepository(d.DB, loc)
	historyRepo := repository.NewStatusHistoryRepository(d.DB)

	engine := availability.NewEngine(bookingRepo, blackoutRepo, availability.WithLocation(loc))

	fanout := events.NewFanout(hub)
	if d.Publisher != nil {
		fanout.Add(d.Publisher)
	}

	opts := []booking.Option{booking.WithPublisher(fanout)}
	if d.Locker != nil {
		opts = append(opts, booking.WithSlotLocker(d.Locker))
	}
	if d.Clock != nil {
		opts = append(opts, booking.WithClock(d.Clock))
	}

	bookingService := booking.NewService(bookingRepo, historyRepo, resourceRepo, engine, opts...)
	bookingHandler := booking.NewHandler(bookingService)

	catalogService := catalog.NewService(resourceRepo, blackoutRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	reporter := utilization.NewReporter(resourceRepo, bookingRepo, blackoutRepo, loc)
	utilizationHandler := utilization.NewHandler(reporter)

	wsHandler := realtime.NewHandler(hub, d.JWT)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_clients": hub.Count()})
	})
	wsHandler.RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(d.JWT))
	{
		catalogHandler.RegisterRoutes(v1)
		bookingHandler.RegisterRoutes(v1)

		admin := v1.Group("/admin")
		admin.Use(middleware.StaffOnly())
		{
			catalogHandler.RegisterAdminRoutes(admin)
			bookingHandler.RegisterAdminRoutes(admin)
			utilizationHandler.RegisterAdminRoutes(admin)
		}
	}

	return r
}
