package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/pmforge/changeflow/internal/ai"
	"github.com/pmforge/changeflow/internal/application/dispatcher"
	"github.com/pmforge/changeflow/internal/application/port"
	"github.com/pmforge/changeflow/internal/application/service"
	appworkflow "github.com/pmforge/changeflow/internal/application/workflow"
	"github.com/pmforge/changeflow/internal/attachment"
	"github.com/pmforge/changeflow/internal/config"
	"github.com/pmforge/changeflow/internal/domain/event"
	domainwf "github.com/pmforge/changeflow/internal/domain/workflow"
	"github.com/pmforge/changeflow/internal/export"
	httpiface "github.com/pmforge/changeflow/internal/interfaces/http"
	"github.com/pmforge/changeflow/internal/notification"
	"github.com/pmforge/changeflow/internal/repository"
	"github.com/pmforge/changeflow/internal/storage"
	"github.com/pmforge/changeflow/internal/worker"
	"github.com/pmforge/changeflow/pkg/database"
	"github.com/pmforge/changeflow/pkg/utils"
)

func main() {
	// Local .env overrides for development; ignored when absent
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting change request workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Export.OutputDir, 0755); err != nil {
		logger.Fatal("Failed to create export directory", zap.Error(err))
	}

	// Initialize repositories
	requestRepo := repository.NewChangeRequestRepository(db, logger)
	approvalRepo := repository.NewApprovalRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	analysisRepo := repository.NewAnalysisRepository(db, logger)

	// Notification delivery degrades to log-only without Lark credentials
	var notifier port.Notifier
	if cfg.Lark.AppID != "" {
		notifier = notification.NewLarkNotifier(notification.LarkConfig{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
	} else {
		logger.Warn("No Lark credentials configured, notifications are log only")
		notifier = notification.NewLogNotifier(logger)
	}

	exporter := export.NewRecordExporter(cfg.Export.OutputDir, cfg.Export.ProjectName, logger)
	planner := domainwf.NewEscalationPlanner(logger)

	// Build the rule table and the engine over it
	rules := appworkflow.BuildChangeRequestRules(appworkflow.RuleDeps{
		Notifier: notifier,
		Exporter: exporter,
		Planner:  planner,
		Logger:   logger,
	})
	engine := domainwf.NewEngine(rules, logger)

	// Domain event dispatcher with an audit log subscriber
	events := dispatcher.NewDispatcher(dispatcher.WithLogger(zapKV{logger}))
	defer events.Close()
	events.SubscribeNamed(event.TypeStatusChanged, "status-audit-log", func(ctx context.Context, evt *event.Event) error {
		logger.Info("Request status changed",
			zap.Int64("request_id", evt.RequestID),
			zap.String("from", evt.GetPayloadString("from")),
			zap.String("to", evt.GetPayloadString("to")),
			zap.String("actor", evt.GetPayloadString("actor")))
		return nil
	})

	opts := []service.Option{
		service.WithDispatcher(events),
		service.WithAnalysisRepository(analysisRepo),
	}
	if cfg.OpenAI.APIKey != "" {
		assessor := ai.NewImpactAssessor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger)
		opts = append(opts, service.WithAssessor(assessor))
	} else {
		logger.Warn("No OpenAI key configured, AI impact drafting is disabled")
	}

	changeService := service.NewChangeRequestService(
		engine, requestRepo, approvalRepo, historyRepo, db, logger, opts...)

	attachmentStore := storage.NewAttachmentStore(cfg.Export.AttachmentDir, logger)
	pdfReader := attachment.NewPDFReader(0, logger)

	// Background scan for approvals nobody acted on in time
	scanner := worker.NewOverdueScanner(approvalRepo, requestRepo, notifier, logger)

	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, changeService, zapKV{logger},
		httpiface.WithAttachments(attachmentStore, pdfReader))

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scanner.Start(ctx); err != nil {
		logger.Fatal("Failed to start overdue scanner", zap.Error(err))
	}
	defer scanner.Stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// zapKV adapts a zap logger to the keys-and-values logging interfaces used
// by the HTTP server and the dispatcher
type zapKV struct {
	logger *zap.Logger
}

func (z zapKV) Info(msg string, keysAndValues ...interface{}) {
	z.logger.Sugar().Infow(msg, keysAndValues...)
}

func (z zapKV) Error(msg string, keysAndValues ...interface{}) {
	z.logger.Sugar().Errorw(msg, keysAndValues...)
}
