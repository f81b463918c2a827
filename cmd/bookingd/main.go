package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Guyeche/Romki-Barber-App-V2/internal/booking"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/calendar"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/email"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/handlers"
	"github.com/Guyeche/Romki-Barber-App-V2/internal/storage"
	"github.com/Guyeche/Romki-Barber-App-V2/libs/config"
	"github.com/Guyeche/Romki-Barber-App-V2/libs/db"
	"github.com/Guyeche/Romki-Barber-App-V2/libs/httpx"
	otelx "github.com/Guyeche/Romki-Barber-App-V2/libs/otel"
	"github.com/Guyeche/Romki-Barber-App-V2/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "bookingd")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	loc, err := time.LoadLocation(config.String("BUSINESS_TIMEZONE", "Asia/Jerusalem"))
	if err != nil {
		logger.Error("invalid BUSINESS_TIMEZONE", "err", err)
		panic(err)
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Error("db migration failed", "err", err)
		panic(err)
	}

	appts := storage.NewAppointmentRepository(pool)
	cfgRepo := storage.NewConfigRepository(pool)

	mailer := email.NewSMTPSender(
		config.String("SMTP_HOST", "localhost"),
		config.String("SMTP_PORT", "1025"),
		config.String("SMTP_FROM", ""),
	)

	var cal booking.CalendarGateway = calendar.Disabled{}
	if base := strings.TrimSpace(config.String("CALENDAR_API_URL", "")); base != "" {
		calendarID, err := config.RequiredString("CALENDAR_ID")
		if err != nil {
			panic(err)
		}
		cal = calendar.NewClient(base, calendarID, config.String("CALENDAR_API_TOKEN", ""), loc)
	} else {
		logger.Warn("CALENDAR_API_URL not set; calendar sync disabled")
	}

	adminEmail := config.String("ADMIN_EMAIL", "")
	orchestrator := booking.NewOrchestrator(appts, cfgRepo, mailer, cal, logger, adminEmail, loc)
	canceller := booking.NewCanceller(appts, cal, mailer, logger)

	bookingHandler := handlers.NewBookingHandler(orchestrator, canceller, appts, cfgRepo, logger, loc)
	adminHandler := handlers.NewAdminHandler(appts, cfgRepo, logger, loc)

	readyChecks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	// Rate limiting protects the public booking endpoints. With Redis it is
	// shared across instances; without, a per-process fixed window applies.
	var limit httpx.Middleware
	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		limit = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service).Middleware(logger, true)
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	} else {
		limit = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/availability/days", bookingHandler.Days)
	mux.HandleFunc("/api/v1/availability/slots", bookingHandler.Slots)
	mux.HandleFunc("/api/v1/book", bookingHandler.Book)
	mux.HandleFunc("/api/v1/my/appointments", bookingHandler.MyAppointments)
	mux.HandleFunc("/api/v1/my/cancel", bookingHandler.MyCancel)
	mux.HandleFunc("/api/v1/appointments", adminHandler.Appointments)
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/admin/schedule", adminHandler.Schedule)
	mux.HandleFunc("/api/v1/admin/blocked-days", adminHandler.BlockedDays)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitCSV(config.String("ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
		limit,
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "bookingd")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
