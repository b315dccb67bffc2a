package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/task-tracker-api/internal/application/auth"
	"github.com/task-tracker-api/internal/application/notification"
	"github.com/task-tracker-api/internal/application/otp"
	"github.com/task-tracker-api/internal/application/reminder"
	"github.com/task-tracker-api/internal/application/task"
	"github.com/task-tracker-api/internal/config"
	"github.com/task-tracker-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/task-tracker-api/internal/infrastructure/jwt"
	"github.com/task-tracker-api/internal/infrastructure/memory"
	"github.com/task-tracker-api/internal/infrastructure/postgres"
	redisinfra "github.com/task-tracker-api/internal/infrastructure/redis"
	"github.com/task-tracker-api/internal/infrastructure/scheduler"
	"github.com/task-tracker-api/internal/infrastructure/smtp"
	"github.com/task-tracker-api/internal/infrastructure/sns"
	"github.com/task-tracker-api/internal/pkg/logger"
	transporthttp "github.com/task-tracker-api/internal/transport/http"
	appmiddleware "github.com/task-tracker-api/internal/transport/http/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("server exited", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	awsCfg, err := dynamo.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, cfg.OTPStore == "dynamo", zl)
	taskRepo := dynamo.NewTaskRepo(dynamoClient, cfg.DynamoTables.Tasks)

	users, closeUsers := openUserRepo(cfg, zl)
	defer closeUsers()

	sched := scheduler.New(zl.Named("scheduler"), cfg.Scheduler.JobTimeout)

	otpStore, err := openOTPStore(ctx, cfg, zl, sched, dynamoClient)
	if err != nil {
		return err
	}

	var mailer notification.Mailer
	if cfg.MailTransport == "log" {
		mailer = smtp.NewLogMailer(zl.Named("mail"))
	} else {
		mailer = smtp.NewMailer(cfg)
	}
	dispatcher := notification.NewDispatcher(mailer, zl.Named("notification"), cfg.OTPTTL)

	jwtProvider, err := jwtinfra.NewProvider(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	otpSvc := otp.NewService(otp.ServiceDeps{
		Store:    otpStore,
		Users:    users,
		Notifier: dispatcher,
		TTL:      cfg.OTPTTL,
		Log:      zl.Named("otp"),
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Users:    users,
		Tokens:   jwtProvider,
		OTP:      otpSvc,
		Welcomer: dispatcher,
		Log:      zl.Named("auth"),
	})
	taskDeps := task.ServiceDeps{
		Tasks:    taskRepo,
		Notifier: dispatcher,
		Log:      zl.Named("task"),
	}
	if cfg.TaskEventsTopicARN != "" {
		taskDeps.Events = sns.NewPublisher(sns.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.TaskEventsTopicARN)
	}
	taskSvc := task.NewService(taskDeps)

	if cfg.Scheduler.Enabled {
		reminderSvc := reminder.NewService(reminder.ServiceDeps{
			Tasks:    taskRepo,
			Users:    users,
			Notifier: dispatcher,
			Log:      zl.Named("reminder"),
		})
		if err := registerReminderJobs(cfg, sched, reminderSvc, zl); err != nil {
			return err
		}
	}

	limiter := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	defer limiter.Stop()

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		OTP:       otpSvc,
		Auth:      authSvc,
		Tasks:     taskSvc,
		Verifier:  jwtProvider,
		Limiter:   limiter,
		Log:       zl.Named("http"),
		LocalMode: !users.Durable(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sched.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv),
			zap.Bool("local_mode", !users.Durable()),
			zap.String("otp_store", cfg.OTPStore))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sched.Stop(shutdownCtx); err != nil {
			zl.Warn("scheduler stop", zap.Error(err))
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		zl.Info("server stopped")
		return nil
	})
	return g.Wait()
}

// openUserRepo returns the Postgres-backed repository when DATABASE_URL is
// set and reachable, otherwise the in-memory Local Mode repository.
func openUserRepo(cfg *config.Config, zl *zap.Logger) (auth.UserRepository, func()) {
	if cfg.DatabaseURL == "" {
		zl.Warn("DATABASE_URL not set, running in LOCAL MODE: accounts are lost on restart")
		return memory.NewUserRepo(), func() {}
	}
	db, err := postgres.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zl.Warn("database unavailable, running in LOCAL MODE: accounts are lost on restart", zap.Error(err))
		return memory.NewUserRepo(), func() {}
	}
	return postgres.NewUserRepo(db), func() { _ = db.Close() }
}

func openOTPStore(ctx context.Context, cfg *config.Config, zl *zap.Logger, sched *scheduler.Scheduler, dynamoClient dynamo.API) (otp.Store, error) {
	switch cfg.OTPStore {
	case "redis":
		client, err := redisinfra.NewClient(ctx, cfg.RedisURL, zl)
		if err != nil {
			return nil, err
		}
		return redisinfra.NewOTPStore(client, cfg.OTPTTL), nil
	case "memory":
		store := memory.NewOTPStore(cfg.OTPTTL)
		spec := fmt.Sprintf("@every %s", cfg.OTPSweepInterval)
		err := sched.RegisterJob(spec, "otp-sweep", func(context.Context) {
			if n := store.Sweep(time.Now()); n > 0 {
				zl.Debug("expired otps swept", zap.Int("count", n))
			}
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return dynamo.NewOTPStore(dynamoClient, cfg.DynamoTables.OTPs, cfg.OTPTTL), nil
	}
}

func registerReminderJobs(cfg *config.Config, sched *scheduler.Scheduler, svc reminder.Service, zl *zap.Logger) error {
	reminders := func(ctx context.Context) {
		n, err := svc.SendDueReminders(ctx)
		if err != nil {
			zl.Error("due reminders", zap.Error(err))
			return
		}
		zl.Info("due reminders sent", zap.Int("count", n))
	}
	reports := func(ctx context.Context) {
		n, err := svc.SendWeeklyReports(ctx)
		if err != nil {
			zl.Error("weekly reports", zap.Error(err))
			return
		}
		zl.Info("weekly reports sent", zap.Int("count", n))
	}
	if err := sched.RegisterJob(cfg.Scheduler.ReminderCron, "due-reminders", reminders); err != nil {
		return err
	}
	if err := sched.RegisterJob(cfg.Scheduler.ReminderCheckCron, "due-reminders-check", reminders); err != nil {
		return err
	}
	return sched.RegisterJob(cfg.Scheduler.ReportCron, "weekly-reports", reports)
}
