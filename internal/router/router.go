package router

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/venue-api/internal/booking"
	"github.com/kiwari-pos/venue-api/internal/config"
	"github.com/kiwari-pos/venue-api/internal/database"
	"github.com/kiwari-pos/venue-api/internal/enum"
	"github.com/kiwari-pos/venue-api/internal/handler"
	mw "github.com/kiwari-pos/venue-api/internal/middleware"
	"github.com/kiwari-pos/venue-api/internal/service"
	"github.com/kiwari-pos/venue-api/internal/settings"
	"github.com/kiwari-pos/venue-api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Every /venues/{vid} route requires a token scoped to that venue; placement
// endpoints are additionally rate limited per venue. Status changes, the
// ledger and reports are limited to owners and managers.
func New(cfg *config.Config, queries *database.Queries, slots booking.SlotSet, hub *ws.Hub, limiter *mw.VenueRateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/venues/{vid}", ws.Handler(hub, cfg.JWTSecret))

	orderWriter := service.NewOrderWriter(queries, settings.NewTaxReader(queries, cfg.DefaultTaxRate))
	bookingWriter := service.NewBookingWriter(queries, slots)

	reportsHandler := handler.NewReportsHandler(queries)

	// Cross-venue reports (OWNER only)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.StaffRoleOwner))
		r.Route("/reports", reportsHandler.RegisterOwnerRoutes)
	})

	r.Route("/venues/{vid}", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireVenue)
		r.Use(limitPosts(limiter))

		orderHandler := handler.NewOrderHandler(orderWriter, queries, hub)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(mw.ManagerRoles...))
				orderHandler.RegisterManagerRoutes(r)
			})
		})

		bookingHandler := handler.NewBookingHandler(bookingWriter, queries, hub)
		bookingHandler.RegisterRoutes(r)

		// Status changes, the ledger and reports (OWNER, MANAGER)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(mw.ManagerRoles...))
			bookingHandler.RegisterManagerRoutes(r)

			ledgerHandler := handler.NewLedgerHandler(queries)
			ledgerHandler.RegisterRoutes(r)

			r.Route("/reports", reportsHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}

// limitPosts applies the venue limiter to placement and resume requests.
// Reads, status changes and price quotes are not throttled.
func limitPosts(limiter *mw.VenueRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		limited := limiter.Middleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && !strings.HasSuffix(r.URL.Path, "/quote") {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
