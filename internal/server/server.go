package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hosting-storefront/internal/config"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/handler"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/middleware"
	"hosting-storefront/internal/service"
	"hosting-storefront/internal/validation"
)

type Services struct {
	Orders       service.OrderService
	Provisioning service.ProvisioningService
	Email        service.EmailService
	Payments     service.PaymentService
	Accounts     service.AccountService
}

type Server struct {
	echo     *echo.Echo
	cfg      *config.HTTPServer
	log      *zap.Logger
	resolver identity.Resolver
	limiter  *middleware.RateLimiter
	metrics  prometheus.Gatherer

	pipeline            *handler.Pipeline
	orderHandler        *handler.OrderHandler
	provisioningHandler *handler.ProvisioningHandler
	emailHandler        *handler.EmailHandler
	paymentHandler      *handler.PaymentHandler
	accountHandler      *handler.AccountHandler
}

// NewServer builds the echo instance. limiter and metrics may be nil to disable them.
func NewServer(
	cfg *config.HTTPServer,
	services Services,
	resolver identity.Resolver,
	limiter *middleware.RateLimiter,
	metrics prometheus.Gatherer,
	log *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	v := validation.New()
	e.Validator = v
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Pre(middleware.CORS())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, values echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", values.Method),
				zap.String("uri", values.URI),
				zap.Int("status", values.Status),
				zap.Duration("latency", values.Latency),
				zap.String("remote_ip", values.RemoteIP),
			}
			if values.Error != nil {
				fields = append(fields, zap.Error(values.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))

	s := &Server{
		echo:     e,
		cfg:      cfg,
		log:      log,
		resolver: resolver,
		limiter:  limiter,
		metrics:  metrics,

		pipeline:            handler.NewPipeline(v, resolver),
		orderHandler:        handler.NewOrderHandler(services.Orders),
		provisioningHandler: handler.NewProvisioningHandler(services.Provisioning),
		emailHandler:        handler.NewEmailHandler(services.Email),
		paymentHandler:      handler.NewPaymentHandler(services.Payments),
		accountHandler:      handler.NewAccountHandler(services.Accounts),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Time: time.Now().UTC()})
	})
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{})))
	}

	var limit []echo.MiddlewareFunc
	if s.limiter != nil {
		limit = append(limit, s.limiter.Middleware())
	}

	fn := s.echo.Group("/functions/v1", limit...)
	fn.POST("/create-order", handler.Handle(s.pipeline, s.orderHandler.CreateOrder))
	fn.POST("/provision-hosting", handler.Handle(s.pipeline, s.provisioningHandler.ProvisionHosting))
	fn.POST("/send-email", handler.Handle(s.pipeline, s.emailHandler.SendEmail))
	fn.POST("/create-checkout", handler.Handle(s.pipeline, s.paymentHandler.CreateCheckout))
	fn.POST("/verify-payment", handler.Handle(s.pipeline, s.paymentHandler.VerifyPayment))

	// -------- read-only account views --------
	auth := middleware.Authenticate(s.resolver)
	fn.GET("/orders", s.accountHandler.ListOrders, auth)
	fn.GET("/hosting-accounts", s.accountHandler.ListHostingAccounts, auth)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	srv := &http.Server{
		Addr:         address,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	return s.echo.StartServer(srv)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
