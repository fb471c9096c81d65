package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/api"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/api/handler"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/config"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー
type Handlers struct {
	Concert     *handler.ConcertHandler
	Reservation *handler.ReservationHandler
	User        *handler.UserHandler
	Health      *handler.HealthHandler
}

// Options はルーターの設定
type Options struct {
	CORSAllowOrigins []string
	Metrics          *metrics.Metrics
	MetricsAuth      config.MetricsConfig
	// Gatherer は /metrics で公開するレジストリ。nil ならデフォルト
	Gatherer prometheus.Gatherer
}

// New はミドルウェアとルートを設定した Echo を返す
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Binder = api.NewBinder()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e, opts.CORSAllowOrigins)
	if opts.Metrics != nil {
		e.Use(middleware.PrometheusMiddleware(opts.Metrics))
	}

	e.GET("/health", h.Health.Check)
	e.GET("/health/ready", h.Health.Ready)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})), middleware.MetricsBasicAuth(opts.MetricsAuth))

	concerts := e.Group("/concerts")
	concerts.POST("", h.Concert.Create)
	concerts.GET("", h.Concert.List)
	concerts.GET("/:id", h.Concert.GetByID)
	concerts.GET("/:id/availability", h.Concert.GetAvailability)
	concerts.DELETE("/:id", h.Concert.Delete)

	reservations := e.Group("/reservations")
	reservations.POST("", h.Reservation.Create)
	reservations.GET("", h.Reservation.List)
	reservations.GET("/user/:userId", h.Reservation.GetUserReservations)
	reservations.PATCH("/:id/cancel", h.Reservation.Cancel)

	users := e.Group("/users")
	users.POST("", h.User.Create)
	users.GET("", h.User.List)
	users.GET("/:id", h.User.GetByID)
	users.DELETE("/:id", h.User.Delete)

	return e
}
