package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"opsdesk-backend/internal/chat"
	"opsdesk-backend/internal/documents"
	"opsdesk-backend/internal/extract"
	"opsdesk-backend/internal/issues"
	"opsdesk-backend/internal/llm"
	openai "opsdesk-backend/internal/llm/openai"
	"opsdesk-backend/internal/queue"
	"opsdesk-backend/internal/shared/config"
	"opsdesk-backend/internal/shared/server"
	"opsdesk-backend/internal/shared/storage/db"
	"opsdesk-backend/internal/shared/storage/object"
	localstore "opsdesk-backend/internal/shared/storage/object/local"
	s3store "opsdesk-backend/internal/shared/storage/object/s3"
	"opsdesk-backend/internal/shared/telemetry"
	"opsdesk-backend/internal/speech"
	"opsdesk-backend/internal/voice"
)

// App holds shared dependencies for the API and worker binaries.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client
	// Dispatcher is set only when no SQS queue is configured; the API binary
	// starts it so extraction jobs run in-process.
	Dispatcher *queue.Dispatcher

	DocumentsRepo documents.Repo
	IssuesRepo    issues.Repo
	ChatRepo      chat.Repo

	LLM              llm.Client
	Synthesizer      speech.Synthesizer
	DocumentsService *documents.Service
	IssuesService    *issues.Service
	ChatService      *chat.Service
	IssueExtractor   *issues.Extractor
	VoiceManager     *voice.Manager

	DocumentsHandler *documents.Handler
	IssuesHandler    *issues.Handler
	ChatHandler      *chat.Handler
	SpeechHandler    *speech.Handler
	VoiceHandler     *voice.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		DocumentsHandler: app.DocumentsHandler,
		IssuesHandler:    app.IssuesHandler,
		ChatHandler:      app.ChatHandler,
		SpeechHandler:    app.SpeechHandler,
		VoiceHandler:     app.VoiceHandler,
	})

	return app, nil
}

// ProcessDocument runs issue extraction for one stored document. Documents
// with no usable text are skipped without error: there is nothing to retry.
func (a *App) ProcessDocument(ctx context.Context, documentID string) error {
	if a.IssueExtractor == nil {
		return fmt.Errorf("issue extractor not configured")
	}

	doc, err := a.DocumentsRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	text := extract.UsableText(doc.ExtractedText)
	if text == "" {
		telemetry.Info("bootstrap.extraction_skipped", map[string]any{
			"document_id":      doc.ID,
			"extraction_state": doc.ExtractionState,
		})
		return nil
	}

	a.IssueExtractor.Run(ctx, doc.ID, doc.FileName, text)
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.DocumentsRepo = documents.NewPGRepo(app.DB)
		app.IssuesRepo = issues.NewPGRepo(app.DB)
		app.ChatRepo = chat.NewPGRepo(app.DB)
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.IssuesRepo = issues.NewMemoryRepo()
		app.ChatRepo = chat.NewMemoryRepo()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	if cfg.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			return err
		}
		llmClient = openaiClient
	}
	app.LLM = llmClient

	app.IssueExtractor = issues.NewExtractor(llmClient, app.IssuesRepo)

	if strings.TrimSpace(cfg.ExtractionQueueURL) != "" {
		sqsClient, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.ExtractionQueueURL)
		if err != nil {
			return err
		}
		app.Queue = sqsClient
	} else {
		dispatcher := queue.NewDispatcher(cfg.ExtractionQueueDepth, func(jobCtx context.Context, msg queue.Message) error {
			return app.ProcessDocument(jobCtx, msg.DocumentID)
		})
		app.Dispatcher = dispatcher
		app.Queue = dispatcher
	}

	app.DocumentsService = documents.NewService(app.DocumentsRepo, app.Store, app.Queue, cfg.ObjectStoreType)
	app.IssuesService = issues.NewService(app.IssuesRepo)

	builder := chat.NewContextBuilder(app.DocumentsRepo)
	app.ChatService = chat.NewService(app.ChatRepo, builder, llmClient)

	if key := strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")); key != "" && strings.TrimSpace(cfg.TTSVoiceID) != "" {
		synth, err := speech.NewClient(key, cfg.TTSVoiceID)
		if err != nil {
			return err
		}
		app.Synthesizer = synth
	} else {
		log.Printf("bootstrap: speech synthesis disabled; set ELEVENLABS_API_KEY and ELEVENLABS_VOICE_ID to enable")
	}

	app.VoiceManager = voice.NewManager(cfg.VoiceMaxBufferBytes)

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.IssuesHandler = issues.NewHandler(app.IssuesService)
	app.ChatHandler = chat.NewHandler(app.ChatService)
	app.SpeechHandler = speech.NewHandler(app.Synthesizer)
	app.VoiceHandler = voice.NewHandler(app.VoiceManager, app.ChatService, app.Synthesizer)

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
