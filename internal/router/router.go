package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	account_api "ms-venue-booking/internal/account/account_api"
	analytics_api "ms-venue-booking/internal/analytics/api"
	beo_api "ms-venue-booking/internal/beo/beo_api"
	calendar_api "ms-venue-booking/internal/calendar/calendar_api"
	catalog_api "ms-venue-booking/internal/catalog/catalog_api"
	customer_api "ms-venue-booking/internal/customer/customer_api"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/order/order_api"
	schedule_api "ms-venue-booking/internal/schedule/schedule_api"
	venue_api "ms-venue-booking/internal/venue/venue_api"
)

// Handlers groups every HTTP surface the router mounts.
type Handlers struct {
	Account   *account_api.Handler
	Customers *customer_api.Handler
	Venues    *venue_api.Handler
	Catalog   *catalog_api.Handler
	Orders    *order_api.Handler
	Schedules *schedule_api.Handler
	Beos      *beo_api.Handler
	Calendar  *calendar_api.Handler
	Reports   *analytics_api.Handler
}

type Options struct {
	AllowedOrigins []string
	// FilesRoot is served read-only under FilesURL.
	FilesRoot string
	FilesURL  string
	// Authenticate puts an auth.Principal in the request context.
	Authenticate func(http.Handler) http.Handler
}

// New wires middleware and every route under /api.
func New(h Handlers, opts Options, log *logger.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if opts.FilesRoot != "" {
		prefix := "/" + strings.Trim(opts.FilesURL, "/")
		files := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.FilesRoot)))
		r.Get(prefix+"/*", files.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", h.Account.RegisterAuthRoutes)

		r.Group(func(r chi.Router) {
			r.Use(opts.Authenticate)

			r.Route("/users", h.Account.RegisterRoutes)
			r.Route("/customers", h.Customers.RegisterRoutes)
			r.Route("/venues", h.Venues.RegisterRoutes)
			r.Route("/departments", h.Catalog.RegisterDepartmentRoutes)
			r.Route("/packages", h.Catalog.RegisterPackageRoutes)
			r.Route("/calendar", h.Calendar.RegisterRoutes)
			r.Route("/reports", h.Reports.RegisterRoutes)
			r.Route("/beos", h.Beos.RegisterMineRoutes)

			r.Route("/orders", func(r chi.Router) {
				h.Orders.RegisterRoutes(r)
				r.Route("/{orderId}/schedules", h.Schedules.RegisterRoutes)
				r.Route("/{orderId}/beos", h.Beos.RegisterRoutes)
			})
		})
	})
	return r
}
