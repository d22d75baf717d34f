package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/documind-auditor/internal/config"
	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
	"github.com/kirillkom/documind-auditor/internal/core/usecase"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/extractor/content"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/queue/nats"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/report/pdf"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/repository/localstate"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/resilience"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/rubric"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/documind-auditor/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Session  *usecase.SessionController
	Composer *pdf.Composer
	Metrics  *metrics.HTTPServerMetrics
	Rubric   domain.Rubric

	closeFn func()
}

type Options struct {
	// Service labels metrics.
	Service string
	// PublishEvents connects to NATS when NATS_URL is set.
	PublishEvents bool
}

// New wires the session. Remote sync and event publishing are optional and never block startup.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	service := opts.Service
	if service == "" {
		service = "api"
	}
	appMetrics := metrics.NewHTTPServerMetrics(service)

	auditRubric, err := rubric.Load(cfg.RubricPath)
	if err != nil {
		return nil, fmt.Errorf("load rubric: %w", err)
	}

	state, err := localfs.New(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("init state storage: %w", err)
	}
	local := localstate.New(state)

	composer, err := NewComposer(cfg)
	if err != nil {
		return nil, err
	}

	model, err := gemini.New(gemini.Options{
		BaseURL:  cfg.GeminiBaseURL,
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Executor: resilience.NewExecutor(modelResilienceConfig(cfg), resilience.WithObserver(appMetrics)),
		Rubric:   auditRubric,
		OnUsage: func(promptTokens, outputTokens int) {
			appMetrics.RecordTokenUsage(cfg.GeminiModel, promptTokens, outputTokens)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	if !model.HasCredentials() {
		slog.Warn("gemini_api_key_missing", "hint", "set GEMINI_API_KEY or API_KEY")
	}

	extractor := content.NewExtractor(content.Options{
		ZipMaxEntries:    cfg.ZipMaxEntries,
		ZipMaxEntryChars: cfg.ZipMaxEntryChars,
		OnDegraded:       appMetrics.RecordExtractionDegraded,
	})

	var closers []func()

	var remote ports.RemoteHistoryStore
	if cfg.RemoteSyncDSN != "" {
		repo, closeDB, err := openRemoteHistory(ctx, cfg.RemoteSyncDSN)
		if err != nil {
			slog.Warn("history_remote_unavailable", "error", err)
		} else {
			remote = repo
			closers = append(closers, closeDB)
		}
	}

	var events ports.AuditEventPublisher
	if opts.PublishEvents && cfg.NATSURL != "" {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig(), resilience.WithObserver(appMetrics)),
			ClientName:         "documind-" + service,
		})
		if err != nil {
			slog.Warn("audit_events_unavailable", "error", err)
		} else {
			events = queue
			closers = append(closers, queue.Close)
		}
	}

	free, premium := cfg.UploadLimits()
	history := usecase.NewHistoryStore(local, remote, appMetrics)
	session := usecase.NewSessionController(
		usecase.NewAuditDocumentUseCase(extractor, model),
		usecase.UploadPolicy{FreeMaxBytes: free, PremiumMaxBytes: premium},
		history,
		usecase.NewProfileService(local),
		composer,
		xlsx.NewExporter(),
		events,
		auditRubric,
		appMetrics,
	)
	if err := session.Start(ctx); err != nil {
		for _, c := range closers {
			c()
		}
		return nil, fmt.Errorf("start session: %w", err)
	}

	return &App{
		Config:   cfg,
		Session:  session,
		Composer: composer,
		Metrics:  appMetrics,
		Rubric:   auditRubric,

		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// NewComposer builds the report composer; the worker uses it without a session.
func NewComposer(cfg config.Config) (*pdf.Composer, error) {
	composer, err := pdf.New(pdf.Options{FontDir: cfg.ReportFontDir, FontFamily: cfg.ReportFontFamily})
	if err != nil {
		return nil, fmt.Errorf("init report composer: %w", err)
	}
	if !composer.UsesUnicodeFont() {
		slog.Warn("report_font_fallback", "hint", "set REPORT_FONT_DIR to a directory with a Unicode TTF font")
	}
	return composer, nil
}

func openRemoteHistory(ctx context.Context, dsn string) (*postgres.HistoryRepository, func(), error) {
	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewHistoryRepository(db)
	if err := ensureRemoteSchema(ctx, repo); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, func() { _ = db.Close() }, nil
}

type schemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// ensureRemoteSchema keeps the mirror for roles without CREATE rights. The table
// may already exist; if not, the first sync reports Denied through the history store.
func ensureRemoteSchema(ctx context.Context, repo schemaEnsurer) error {
	err := repo.EnsureSchema(ctx)
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrSyncPermissionDenied) {
		slog.Warn("history_schema_skipped", "error", err)
		return nil
	}
	return fmt.Errorf("ensure schema: %w", err)
}

func modelResilienceConfig(cfg config.Config) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.AttemptTimeout = cfg.ModelTimeout
	rc.RetryMaxAttempts = cfg.ModelRetryMaxAttempts
	rc.RetryInitialBackoff = cfg.ModelRetryInitialBackoff
	rc.RetryMaxBackoff = cfg.ModelRetryMaxBackoff
	rc.BreakerEnabled = cfg.ModelBreakerEnabled
	rc.BreakerMinRequests = 5
	return rc
}
