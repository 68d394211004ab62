package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate_crm_backend/internal/assignment"
	assignrepo "estate_crm_backend/internal/assignment/repository"
	"estate_crm_backend/internal/assignment/seed"
	assignservice "estate_crm_backend/internal/assignment/service"
	"estate_crm_backend/internal/email"
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/http/router"
	"estate_crm_backend/internal/leads"
	"estate_crm_backend/internal/leads/activity"
	"estate_crm_backend/internal/leads/lifecycle"
	"estate_crm_backend/internal/leads/query"
	leadrepo "estate_crm_backend/internal/leads/repository"
	"estate_crm_backend/internal/notification"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/internal/whatsapp"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/db"
	"estate_crm_backend/platform/lock"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// stores holds the persistence chosen by STORE_DRIVER.
type stores struct {
	leads  leadrepo.LeadsRepository
	users  assignrepo.AssignmentRepository
	health apphttp.HealthChecker
	close  func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	st := openStores(ctx, cfg, log)
	defer st.close()

	if path := os.Getenv("SEED_FILE"); path != "" {
		if err := seedFromFile(ctx, st.users, path, log); err != nil {
			log.Error("failed to seed fixtures", "error", err, "path", path)
			panic("failed to seed fixtures: " + err.Error())
		}
	}

	locker, closeLocker := initLocker(cfg, log)
	defer closeLocker()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	defer closeScheduler()

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(email.NewSender(cfg), whatsappSender(cfg, log), st.users, log)
	notificationModule.RegisterHandlers(eventBus)

	// The lifecycle engine resolves owners through the assignment service, and
	// the assignment service writes owners through the lifecycle engine.
	assignSvc := assignservice.New(st.users, st.leads, nil, locker, eventBus, val, log,
		assignservice.WithDuplicatePolicy(assignservice.ParseDuplicatePolicy(cfg.GetTeamDuplicatePolicy())))
	lifecycleSvc := lifecycle.New(st.leads, locker, eventBus, assignSvc, val, log,
		lifecycle.WithPhoneRegion(cfg.GetPhoneRegion()))
	assignSvc.SetOwnerWriter(lifecycleSvc)

	activityOpts := []activity.Option{}
	if reminderScheduler != nil {
		activityOpts = append(activityOpts, activity.WithReminderScheduler(reminderScheduler))
	}
	activitySvc := activity.New(st.leads, locker, eventBus, val, log, activityOpts...)
	querySvc := query.New(st.leads, val, log)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   st.health,
		EventBus: eventBus,
		Users:    assignSvc,
		Modules: []apphttp.Module{
			leads.NewModule(lifecycleSvc, activitySvc, querySvc, log),
			assignment.NewModule(assignSvc),
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) stores {
	if cfg.UsesMemoryStore() {
		log.Warn("using in-memory store; data is lost on restart")
		return stores{
			leads: leadrepo.NewMemory(),
			users: assignrepo.NewMemory(),
			close: func() {},
		}
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	return stores{
		leads:  leadrepo.New(pool),
		users:  assignrepo.New(pool),
		health: pool,
		close:  pool.Close,
	}
}

func seedFromFile(ctx context.Context, store seed.Store, path string, log *logger.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	fixture, err := seed.Parse(f)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, store, fixture, time.Now().UTC())
	if err != nil {
		return err
	}
	log.Info("fixtures seeded", "users", res.Users, "teams", res.Teams, "members", res.Members)
	return nil
}

func initLocker(cfg config.LockConfig, log *logger.Logger) (lock.Locker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Info("REDIS_URL not configured; using in-process locks")
		return lock.NewKeyedMutex(), func() {}
	}

	locker, err := lock.NewRedisLockerFromURL(cfg.GetRedisURL(), cfg.GetLockTTL())
	if err != nil {
		log.Error("failed to initialize redis locker", "error", err)
		panic("failed to initialize redis locker: " + err.Error())
	}
	return locker, func() { _ = locker.Close() }
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; task reminders disabled")
		return nil, func() {}
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, func() {}
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

// whatsappSender keeps a nil *whatsapp.Client out of the interface value.
func whatsappSender(cfg whatsapp.Config, log *logger.Logger) notification.WhatsAppSender {
	if c := whatsapp.NewClient(cfg, log); c != nil {
		return c
	}
	return nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
