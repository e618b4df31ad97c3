package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-letters/app/auth"
	"github.com/vibast-solutions/ms-go-letters/app/controller"
	lettersgrpc "github.com/vibast-solutions/ms-go-letters/app/grpc"
	"github.com/vibast-solutions/ms-go-letters/app/pdf"
	"github.com/vibast-solutions/ms-go-letters/app/projection"
	"github.com/vibast-solutions/ms-go-letters/app/provider"
	"github.com/vibast-solutions/ms-go-letters/app/service"
	"github.com/vibast-solutions/ms-go-letters/app/storage"
	"github.com/vibast-solutions/ms-go-letters/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start both HTTP (Echo) and gRPC servers for the letters service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type httpControllers struct {
	health    *controller.HealthController
	orders    *controller.OrderController
	payments  *controller.PaymentController
	admin     *controller.AdminController
	ops       *controller.OpsController
	documents *controller.DocumentController
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, letterService, cleanup := mustCreateLetterService()
	defer cleanup()

	controllers := httpControllers{
		health:    controller.NewHealthController(),
		orders:    controller.NewOrderController(letterService),
		payments:  controller.NewPaymentController(letterService),
		admin:     controller.NewAdminController(letterService),
		ops:       controller.NewOpsController(letterService),
		documents: controller.NewDocumentController(letterService),
	}
	grpcTrackingServer := lettersgrpc.NewServer(letterService)

	if cfg.Auth.JWTSecret == "" && !cfg.App.IsLocal() {
		logrus.Warn("AUTH_JWT_SECRET is empty; user and admin tokens will be rejected")
	}
	authenticator := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.App.IsLocal())

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()

	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)
	grpcInternalAuthMiddleware := authmiddleware.NewGRPCInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(cfg, controllers, authenticator, echoInternalAuthMiddleware)
	grpcSrv, lis := setupGRPCServer(cfg, grpcTrackingServer, grpcInternalAuthMiddleware, cfg.App.ServiceName)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("gRPC server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	grpcSrv.GracefulStop()

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	cfg *config.Config,
	c httpControllers,
	authenticator *auth.Authenticator,
	internalAuthMiddleware *authmiddleware.EchoInternalAuthMiddleware,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(ensureRequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderXRequestID},
	}))

	limits := cfg.RateLimits

	e.GET("/", c.health.Root)

	api := e.Group("/api")
	api.GET("/health", c.health.Health)

	orders := api.Group("/orders")
	orders.POST("/create", c.orders.CreateOrder, perMinuteLimit(limits.CreateOrderPerMinute), authenticator.OptionalUser())
	orders.GET("/track/:tracking_code", c.orders.TrackOrder, perMinuteLimit(limits.TrackOrderPerMinute))

	payments := api.Group("/payments")
	payments.POST("/create-intent", c.payments.CreateIntent, perMinuteLimit(limits.CreateIntentPerMinute))
	payments.POST("/webhook", c.payments.Webhook, perMinuteLimit(limits.WebhookPerMinute))
	payments.GET("/status", c.payments.Status, perMinuteLimit(limits.PaymentStatusPerMinute))

	admin := api.Group("/admin", authenticator.RequireAdmin())
	admin.GET("/orders", c.admin.ListOrders)
	admin.PATCH("/orders/:id/status", c.admin.UpdateOrderStatus)

	ops := api.Group("/ops", internalAuthMiddleware.RequireInternalAccess(cfg.App.ServiceName))
	ops.POST("/pdf-generate", c.ops.GeneratePDF)
	ops.POST("/pii-cleanup", c.ops.CleanupPII)

	documents := api.Group("/documents", authenticator.OptionalUser())
	documents.GET("/:collection/:id", c.documents.Get)
	documents.PUT("/:collection/:id", c.documents.Put)

	return e
}

// ensureRequestID keeps a caller supplied X-Request-Id and generates one
// otherwise.
func ensureRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
				ctx.Request().Header.Set(echo.HeaderXRequestID, requestID)
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func setupGRPCServer(
	cfg *config.Config,
	trackingServer *lettersgrpc.Server,
	internalAuthMiddleware *authmiddleware.GRPCInternalAuthMiddleware,
	appServiceName string,
) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			lettersgrpc.RecoveryInterceptor(),
			lettersgrpc.RequestIDInterceptor(),
			lettersgrpc.LoggingInterceptor(),
			internalAuthMiddleware.UnaryRequireInternalAccess(appServiceName),
		),
	)
	lettersgrpc.RegisterTrackingServiceServer(grpcSrv, trackingServer)

	return grpcSrv, lis
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

func mustOpenDB(cfg *config.Config) *sql.DB {
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}
	return db
}

func mustCreateLetterService() (*config.Config, *service.LetterService, func()) {
	cfg := mustLoadConfig()
	db := mustOpenDB(cfg)
	ctx := context.Background()

	iyzicoProvider := provider.NewIyzicoProvider(provider.IyzicoConfig{
		Env:         cfg.Iyzico.Env,
		APIKey:      cfg.Iyzico.APIKey,
		SecretKey:   cfg.Iyzico.SecretKey,
		BaseURL:     cfg.Iyzico.BaseURL,
		CallbackURL: cfg.Iyzico.CallbackURL,
		HTTPTimeout: cfg.Iyzico.HTTPTimeout,
	})
	if iyzicoProvider.Mocked() {
		logrus.Warn("Iyzico is running with mock credentials; checkouts are simulated")
	}

	publisher, err := projection.FromConfig(ctx, cfg.Firestore)
	if err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to initialize projection publisher")
	}

	objects, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = publisher.Close()
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to initialize object storage")
	}
	logrus.WithField("driver", objects.Driver).Info("Object storage ready")

	letterService := service.NewLetterService(
		service.NewSQLStore(db),
		provider.NewRegistry(iyzicoProvider),
		publisher,
		pdf.NewLetterRenderer(),
		objects.Storage,
		cfg.Payments,
		cfg.Jobs,
		cfg.App.Env,
	)

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close projection publisher")
		}
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, letterService, cleanup
}
