package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/cancel_booking"
	confirmBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/create_booking"
	extendBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/extend_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_booking"
	getUserBookingsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_user_bookings"
	processEntryHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/process_entry"
	processExitHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/process_exit"
	setMaintenanceHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/set_maintenance"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/config"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	gateRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/gate"
	rateRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/rate"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-ParkingService/internal/integrations/notifier"
	paymentServiceClient "github.com/m04kA/SMC-ParkingService/internal/integrations/paymentservice"
	userServiceClient "github.com/m04kA/SMC-ParkingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-ParkingService/internal/jobs"
	bookingsService "github.com/m04kA/SMC-ParkingService/internal/service/bookings"
	"github.com/m04kA/SMC-ParkingService/internal/service/dispatch"
	"github.com/m04kA/SMC-ParkingService/internal/service/fees"
	gateService "github.com/m04kA/SMC-ParkingService/internal/service/gate"
	"github.com/m04kA/SMC-ParkingService/internal/service/ledger"
	slotsService "github.com/m04kA/SMC-ParkingService/internal/service/slots"
	getAvailableSlotsUC "github.com/m04kA/SMC-ParkingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-ParkingService/pkg/clock"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ParkingService...")
	log.Info("Configuration loaded from config.toml")

	// Счётчики бронирований и шлагбаумов нужны сервисам всегда,
	// флаг управляет только endpoint'ом и HTTP/pool метриками
	metricsCollector := metrics.New(cfg.Metrics.ServiceName)
	stopMetricsCh := make(chan struct{})

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil, cfg.Metrics.ServiceName)
	}

	// Репозитории и менеджер транзакций
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	slotRepository := slotRepo.NewRepository(wrappedDB)
	rateRepository := rateRepo.NewRepository(wrappedDB)
	gateRepository := gateRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Загружаем леджер слотов из БД
	slotLedger := ledger.New(log)
	if err := restoreLedger(context.Background(), slotLedger, slotRepository, bookingRepository); err != nil {
		log.Fatal("Failed to restore slot ledger: %v", err)
	}

	// Инициализируем интеграционных клиентов
	userClient := userServiceClient.NewClient(
		cfg.UserService.URL,
		time.Duration(cfg.UserService.Timeout)*time.Second,
		log,
	)
	paymentClient := paymentServiceClient.NewClient(
		cfg.PaymentService.URL,
		time.Duration(cfg.PaymentService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (UserService=%s timeout=%ds, PaymentService=%s timeout=%ds)",
		cfg.UserService.URL, cfg.UserService.Timeout, cfg.PaymentService.URL, cfg.PaymentService.Timeout)

	var notificationSink bookingsService.NotificationSink
	if cfg.Notifier.Enabled {
		publisher, err := notifier.Dial(cfg.Notifier.URL, cfg.Notifier.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to notifier: %v", err)
		}
		defer publisher.Close()
		notificationSink = publisher
		log.Info("Notifier connected (exchange=%s)", cfg.Notifier.Exchange)
	} else {
		notificationSink = notifier.NewLogSink(log)
		log.Info("Notifier disabled, events are written to log")
	}

	// Очередь внешних вызовов после коммита
	dispatcher := dispatch.New(dispatch.Config{
		Workers:     cfg.Dispatch.Workers,
		QueueSize:   cfg.Dispatch.QueueSize,
		MaxAttempts: cfg.Dispatch.MaxAttempts,
		Backoff:     time.Duration(cfg.Dispatch.BackoffMillis) * time.Millisecond,
		CallTimeout: time.Duration(cfg.Dispatch.CallTimeoutSecs) * time.Second,
	}, metricsCollector, log)
	dispatcher.Start()

	// Инициализируем сервисы
	realClock := clock.Real{}
	feeCalculator := fees.NewCalculator()

	bookingSvc := bookingsService.NewService(bookingsService.Config{
		CancelCutoff:        cfg.Booking.CancelCutoff(),
		GracePeriod:         cfg.Booking.GracePeriod(),
		DefaultDurationType: domain.DurationType(cfg.Booking.DefaultDurationType),
	}, bookingsService.Dependencies{
		Bookings:   bookingRepository,
		Slots:      slotRepository,
		Rates:      rateRepository,
		Ledger:     slotLedger,
		Fees:       feeCalculator,
		Vehicles:   userClient,
		Payments:   paymentClient,
		Notifier:   notificationSink,
		Dispatcher: dispatcher,
		TxManager:  txMgr,
		Clock:      realClock,
		Metrics:    metricsCollector,
		Logger:     log,
	})

	gateProcessor := gateService.NewProcessor(gateService.Dependencies{
		Bookings:   bookingRepository,
		Entries:    gateRepository,
		Slots:      slotRepository,
		Ledger:     slotLedger,
		Fees:       feeCalculator,
		Payments:   paymentClient,
		Notifier:   notificationSink,
		Dispatcher: dispatcher,
		TxManager:  txMgr,
		Metrics:    metricsCollector,
		Logger:     log,
	})

	slotSvc := slotsService.NewService(slotRepository, slotLedger, txMgr, log)

	// Инициализируем use cases
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		slotLedger,
		rateRepository,
		feeCalculator,
		realClock,
		log,
	)

	// Фоновая очистка просроченных бронирований
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal("Failed to create scheduler: %v", err)
	}
	expiryInterval := time.Duration(cfg.Expiry.IntervalSeconds) * time.Second
	expiryJob := jobs.NewExpiryJob(bookingSvc, realClock, expiryInterval, log)
	if _, err := expiryJob.Schedule(scheduler, expiryInterval); err != nil {
		log.Fatal("Failed to schedule expiry job: %v", err)
	}
	scheduler.Start()

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	confirmBooking := confirmBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	extendBooking := extendBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	processEntry := processEntryHandler.NewHandler(gateProcessor, realClock, log)
	processExit := processExitHandler.NewHandler(gateProcessor, realClock, log)
	setMaintenance := setMaintenanceHandler.NewHandler(slotSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные места на временное окно
	api.HandleFunc("/locations/{locationId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Шлагбаумы (доступны только из внутренней сети парковки)
	api.HandleFunc("/gates/{gateId}/entries", processEntry.Handle).Methods(http.MethodPost)
	api.HandleFunc("/gates/{gateId}/exits", processExit.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/extend", extendBooking.Handle).Methods(http.MethodPatch)

	// История бронирований пользователя
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Управление местами (для операторов) ---
	protected.HandleFunc("/slots/{slotId}/maintenance", setMaintenance.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if err := scheduler.Shutdown(); err != nil {
		log.Error("Scheduler shutdown failed: %v", err)
	}

	// Дожидаемся отправки уведомлений и платёжных вызовов из очереди
	dispatcher.Stop()

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}

// restoreLedger загружает слоты и удерживающие их бронирования
func restoreLedger(ctx context.Context, l *ledger.Ledger, slots *slotRepo.Repository, bookings *bookingRepo.Repository) error {
	allSlots, err := slots.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load slots: %w", err)
	}

	holding, err := bookings.GetHoldingSlots(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	reservations := make([]ledger.Reservation, 0, len(holding))
	for _, b := range holding {
		reservations = append(reservations, ledger.Reservation{
			Token:     b.ReservationToken,
			SlotID:    b.SlotID,
			BookingID: b.ID,
			Window:    b.Window,
		})
	}

	return l.Restore(allSlots, reservations)
}
