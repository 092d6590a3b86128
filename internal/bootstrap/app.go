package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"answerpath-backend/internal/chunker"
	"answerpath-backend/internal/documents"
	"answerpath-backend/internal/extract"
	"answerpath-backend/internal/extraction"
	"answerpath-backend/internal/llm"
	openai "answerpath-backend/internal/llm/openai"
	"answerpath-backend/internal/pipeline"
	"answerpath-backend/internal/questions"
	"answerpath-backend/internal/queue"
	"answerpath-backend/internal/shared/config"
	"answerpath-backend/internal/shared/server"
	"answerpath-backend/internal/shared/storage/db"
	"answerpath-backend/internal/shared/storage/object"
	localstore "answerpath-backend/internal/shared/storage/object/local"
	s3store "answerpath-backend/internal/shared/storage/object/s3"
	"answerpath-backend/internal/shared/telemetry"
	"answerpath-backend/internal/workerproc"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.Store
	Queue            queue.Client
	Channel          *queue.ChannelClient
	DocumentsRepo    documents.Repo
	QuestionsStore   questions.Store
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
	LLM              llm.Completer
	Engine           *extraction.Engine
	Processor        *pipeline.Processor
}

// Build prepares shared dependencies and the HTTP router.
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

	if err := buildQueue(ctx, app); err != nil {
		return nil, err
	}
	if err := buildLLM(app); err != nil {
		return nil, err
	}
	buildServices(app)

	app.Router = server.NewRouter(app.Config, server.RouterDeps{
		Routes: []server.RouteRegistrar{app.DocumentsHandler},
		Ready:  app.Ready,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, app *App) error {
	if app.Config.QueueBackend == "sqs" {
		client, err := queue.NewSQSClient(ctx, app.Config.SQSQueueURL, app.Config.AWSRegion)
		if err != nil {
			return err
		}
		app.Queue = client
		return nil
	}
	app.Channel = queue.NewChannelClient(queue.ChannelOptions{
		Retryable: workerproc.IsRetryable,
	})
	app.Queue = app.Channel
	return nil
}

func buildLLM(app *App) error {
	cfg := app.Config
	var client llm.Completer = llm.PlaceholderClient{}
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "openai":
		if strings.TrimSpace(cfg.LLMAPIKey) == "" && config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY empty; question extraction will report unavailable")
			break
		}
		openaiClient, err := openai.NewClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMTimeout)
		if err != nil {
			return err
		}
		client = openaiClient
	case "", "none":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	burst := int(cfg.LLMRequestsPerSecond)
	app.LLM = llm.Throttle(client, cfg.LLMRequestsPerSecond, max(1, burst))
	return nil
}

func buildServices(app *App) {
	var (
		docRepo documents.Repo
		qStore  questions.Store
	)
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		qStore = questions.NewPGStore(app.DB)
	} else {
		memRepo := documents.NewMemoryRepo()
		docRepo = memRepo
		qStore = questions.NewMemoryStore(memRepo)
	}

	app.Engine = extraction.NewEngine(app.LLM, extraction.Options{
		Model:       app.Config.LLMModel,
		Temperature: app.Config.LLMTemperature,
		Timeout:     app.Config.LLMTimeout,
	})
	app.Processor = &pipeline.Processor{
		Documents: docRepo,
		Questions: qStore,
		Extractor: extract.New(app.Store),
		Chunker:   chunker.New(chunker.WithChunkSize(app.Config.ChunkSize), chunker.WithOverlap(app.Config.ChunkOverlap)),
		Engine:    app.Engine,
		Policy:    pipeline.ParseRetryPolicy(app.Config.RetryPolicy),
	}

	app.DocumentsRepo = docRepo
	app.QuestionsStore = qStore
	app.DocumentsService = &documents.Service{
		Store:     app.Store,
		Repo:      docRepo,
		Queue:     app.Queue,
		Questions: qStore,
	}
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
}

// RunInProcessWorker consumes the in-process channel queue with the pipeline
// until ctx is cancelled. It returns immediately when jobs go to SQS.
func (a *App) RunInProcessWorker(ctx context.Context) error {
	if a.Channel == nil {
		return nil
	}
	telemetry.Info("worker.inprocess.started", map[string]any{"topic": queue.DefaultTopic})
	return a.Channel.Subscribe(ctx, func(ctx context.Context, body []byte) error {
		return workerproc.HandleMessage(ctx, a.Processor, string(body))
	})
}

// Ready reports whether the backing database answers.
func (a *App) Ready(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext(ctx)
}

// Close releases the queue and database.
func (a *App) Close() error {
	var errs []error
	if a.Channel != nil {
		errs = append(errs, a.Channel.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
