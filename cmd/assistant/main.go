package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/campus-advising/advising_bot/internal/app"
	"github.com/campus-advising/advising_bot/internal/calendar"
	"github.com/campus-advising/advising_bot/internal/config"
	"github.com/campus-advising/advising_bot/internal/controller"
	"github.com/campus-advising/advising_bot/internal/controller/session"
	"github.com/campus-advising/advising_bot/internal/conversation"
	"github.com/campus-advising/advising_bot/internal/model"
	"github.com/campus-advising/advising_bot/internal/repository"
	"github.com/campus-advising/advising_bot/internal/repository/memory"
	"github.com/campus-advising/advising_bot/internal/resolver"
	"github.com/campus-advising/advising_bot/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var (
		store    service.AppointmentStore
		advisors service.AdvisorDirectory
		students studentDirectory
		booked   calendar.BookedLookup
	)

	if cfg.DBDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		migrator, err := app.NewMigrator(pool)
		if err != nil {
			return err
		}
		if err := migrator.Run(ctx); err != nil {
			return err
		}
		migrator.Close()

		apptRepo := repository.NewAppointmentRepository(pool)
		store = apptRepo
		booked = apptRepo
		advisors = repository.NewAdvisorRepository(pool)
		students = repository.NewStudentRepository(pool)
		logger.Info("using postgres appointment store")
	} else {
		memStore := memory.NewAppointmentStore()
		directory := memory.NewDirectory(seedAdvisors()...)
		directory.UpsertStudent(ctx, &model.Student{
			ID:   "student-demo",
			Name: "Demo Student",
		})

		store = memStore
		booked = memStore
		advisors = directory
		students = directory
		logger.Info("no DB_DSN set, using in-memory appointment store")
	}

	var classifier resolver.Classifier
	if cfg.GoogleAPIKey != "" {
		gemini, err := resolver.NewGeminiClassifier(ctx, cfg.GoogleAPIKey)
		if err != nil {
			return err
		}
		defer gemini.Close()
		classifier = gemini
		logger.Info("classifier fallback enabled")
	}

	avail := calendar.NewAvailability(booked)
	strategy := resolver.NewTwoTier(classifier, cfg.ClassifierTimeout, logger)

	advisorSvc := service.NewAdvisorService(advisors)
	bookingSvc := service.NewBookingService(store, advisors, students, logger)

	notifier := app.NewAsyncNotifier(service.NewLogNotifier(logger), logger)
	notifier.Start(ctx)
	defer notifier.Stop()

	engine := conversation.NewEngine(advisorSvc, bookingSvc, avail, strategy, notifier, logger)
	sessions := session.NewManager()

	if cfg.TelegramToken != "" {
		tgBot, err := bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
		botController := controller.NewBotController(tgBot, engine, sessions, bookingSvc, students, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			return err
		}
		go botController.Start(ctx)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	controller.NewHTTPHandler(engine, sessions, bookingSvc, logger).RegisterRoutes(router)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// studentDirectory is the union of what the booking service and the
// Telegram front-end need from a student store.
type studentDirectory interface {
	service.StudentDirectory
	controller.StudentRegistry
}

// seedAdvisors mirrors the database seed for database-less development.
func seedAdvisors() []*model.Advisor {
	return []*model.Advisor{
		{ID: "c.noble@university.edu", Name: "Catherine Noble", Email: "c.noble@university.edu", Title: "Academic Advisor Sr.", ProgramLevel: model.ProgramUndergraduate},
		{ID: "m.herrera@university.edu", Name: "Miguel Herrera", Email: "m.herrera@university.edu", Title: "Academic Advisor", ProgramLevel: model.ProgramUndergraduate},
		{ID: "j.okafor@university.edu", Name: "Jane Okafor", Email: "j.okafor@university.edu", Title: "Graduate Advisor", ProgramLevel: model.ProgramGraduate},
		{ID: "s.lindqvist@university.edu", Name: "Sofia Lindqvist", Email: "s.lindqvist@university.edu", Title: "Graduate Program Advisor", ProgramLevel: model.ProgramGraduate},
	}
}
