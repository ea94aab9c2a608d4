package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/heartline/heartline/internal/application/usecase"
	"github.com/heartline/heartline/internal/domain/repository"
	"github.com/heartline/heartline/internal/domain/service"
	"github.com/heartline/heartline/internal/infrastructure/config"
	"github.com/heartline/heartline/internal/infrastructure/oracle"
	"github.com/heartline/heartline/internal/infrastructure/persistence"
	"github.com/heartline/heartline/internal/infrastructure/persona"
	httpServer "github.com/heartline/heartline/internal/interfaces/http"
	"github.com/heartline/heartline/internal/interfaces/http/handlers"
	"github.com/heartline/heartline/internal/interfaces/telegram"
	ws "github.com/heartline/heartline/internal/interfaces/websocket"
)

// App 应用程序
type App struct {
	// 配置
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB

	// 仓储层
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository

	// 领域服务
	roster   *service.Roster
	engine   *service.ProgressionEngine
	narrator *service.Narrator

	// 基础设施
	oracleChain     *oracle.Chain
	personaRegistry *persona.Registry
	personaWatcher  *persona.Watcher

	// 应用服务
	conversationUseCase *usecase.ConversationUseCase
	sendMessageUseCase  *usecase.SendMessageUseCase
	quizFlowUseCase     *usecase.QuizFlowUseCase

	// 接口层
	hub             *ws.Hub
	httpServer      *httpServer.Server
	telegramAdapter *telegram.Adapter

	hubCancel context.CancelFunc
}

// NewApp 创建应用程序（依赖注入容器）
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		config: cfg,
		logger: logger,
	}

	if err := app.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := app.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	if err := app.initDomainServices(); err != nil {
		return nil, fmt.Errorf("failed to init domain services: %w", err)
	}

	app.initApplicationServices()

	if err := app.initInterfaces(); err != nil {
		return nil, fmt.Errorf("failed to init interfaces: %w", err)
	}

	// 初始化默认数据
	if err := persistence.Seed(context.Background(), app.conversationRepo, app.messageRepo, app.logger); err != nil {
		return nil, fmt.Errorf("failed to seed data: %w", err)
	}

	return app, nil
}

// NewAppCLI creates a lightweight app for the REPL: no HTTP server, no
// WebSocket hub, no Telegram.
func NewAppCLI(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		config: cfg,
		logger: logger,
	}

	if err := app.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := app.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	if err := app.initDomainServices(); err != nil {
		return nil, fmt.Errorf("failed to init domain services: %w", err)
	}

	app.initApplicationServices()

	if err := persistence.Seed(context.Background(), app.conversationRepo, app.messageRepo, app.logger); err != nil {
		return nil, fmt.Errorf("failed to seed data: %w", err)
	}

	return app, nil
}

// initRepositories 初始化仓储层
func (app *App) initRepositories() error {
	app.logger.Info("Initializing repositories",
		zap.String("database", app.config.Database.Type),
	)

	if app.config.Database.Type == "memory" {
		app.conversationRepo = persistence.NewMemoryConversationRepository()
		app.messageRepo = persistence.NewMemoryMessageRepository()
		return nil
	}

	db, err := persistence.NewDBConnection(&app.config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.db = db

	app.conversationRepo = persistence.NewGormConversationRepository(db)
	app.messageRepo = persistence.NewGormMessageRepository(db)
	return nil
}

// initInfrastructure 初始化基础设施：预言机降级链与人设注册表
func (app *App) initInfrastructure() error {
	app.logger.Info("Initializing infrastructure")

	timeout := time.Duration(app.config.Oracle.TimeoutSeconds) * time.Second

	chain := oracle.NewChain(app.logger)
	chain.AddTier(oracle.NewEndpointTier(oracle.EndpointConfig{
		ReplyURL: app.config.Oracle.ReplyEndpoint,
		ScoreURL: app.config.Oracle.ScoreEndpoint,
		QuizURL:  app.config.Oracle.QuizEndpoint,
		APIKey:   app.config.Oracle.APIKey,
		Timeout:  timeout,
	}, app.logger))
	chain.AddTier(oracle.NewGeminiTier(oracle.GeminiConfig{
		APIKey:  app.config.Oracle.GeminiAPIKey,
		Model:   app.config.Oracle.GeminiModel,
		BaseURL: app.config.Oracle.GeminiBaseURL,
	}, app.logger))
	chain.AddTier(oracle.NewHeuristicTier())
	app.oracleChain = chain

	app.personaRegistry = persona.NewRegistry(app.config.Personas.Path, app.logger)
	if err := app.personaRegistry.LoadPack(); err != nil {
		app.logger.Warn("Persona pack load failed, using builtins", zap.Error(err))
	}

	if app.config.Personas.Watch {
		watcher, err := persona.NewWatcher(app.personaRegistry, app.logger)
		if err != nil {
			app.logger.Warn("Persona watcher init failed", zap.Error(err))
		} else {
			app.personaWatcher = watcher
		}
	}

	return nil
}

// initDomainServices 初始化领域服务
func (app *App) initDomainServices() error {
	app.logger.Info("Initializing domain services")

	app.roster = service.NewRoster(app.conversationRepo, app.logger)
	app.engine = service.NewProgressionEngine(app.conversationRepo, app.messageRepo, app.roster, app.logger)
	app.narrator = service.NewNarrator(app.logger)

	// 开局把锁链状态归一化（第一位解锁，后继按完成度连锁解锁）
	if _, err := app.roster.Load(context.Background()); err != nil {
		app.logger.Warn("Roster normalization failed", zap.Error(err))
	}

	return nil
}

// initApplicationServices 初始化应用服务
func (app *App) initApplicationServices() {
	app.logger.Info("Initializing application services")

	app.conversationUseCase = usecase.NewConversationUseCase(
		app.conversationRepo, app.messageRepo, app.roster, app.engine, app.logger)
	app.sendMessageUseCase = usecase.NewSendMessageUseCase(
		app.conversationRepo, app.messageRepo, app.engine, app.narrator,
		app.personaRegistry, app.oracleChain, app.oracleChain, app.oracleChain, app.logger)
	app.quizFlowUseCase = usecase.NewQuizFlowUseCase(app.engine, app.logger)
}

// initInterfaces 初始化接口层
func (app *App) initInterfaces() error {
	app.logger.Info("Initializing interfaces")

	// WebSocket hub + 进度事件广播
	app.hub = ws.NewHub(app.logger)
	app.engine.OnTransition(func(tr service.Transition) {
		app.hub.Broadcast(&ws.Event{
			Type:           ws.EventProgress,
			ConversationID: tr.ConversationID,
			Payload:        tr,
		})
		if tr.LostLife {
			app.hub.Broadcast(&ws.Event{
				Type:           ws.EventLifeLost,
				ConversationID: tr.ConversationID,
				Payload:        map[string]int{"lives": tr.Lives},
			})
		}
		if tr.UnlockedNextID != "" {
			app.hub.Broadcast(&ws.Event{
				Type:    ws.EventUnlock,
				Payload: map[string]string{"conversation_id": tr.UnlockedNextID},
			})
		}
	})

	// HTTP 服务器
	app.httpServer = httpServer.NewServer(
		httpServer.Config{
			Host: app.config.Server.Host,
			Port: app.config.Server.Port,
			Mode: app.config.Server.Mode,
		},
		httpServer.Handlers{
			Conversations: handlers.NewConversationHandler(app.conversationUseCase, app.logger),
			Messages:      handlers.NewMessageHandler(app.conversationUseCase, app.sendMessageUseCase, app.hub, app.logger),
			Quizzes:       handlers.NewQuizHandler(app.quizFlowUseCase, app.hub, app.logger),
			Oracle:        handlers.NewOracleHandler(app.oracleChain),
			WS:            ws.NewHandler(app.hub, app.logger),
		},
		app.logger,
	)

	// Telegram适配器
	if app.config.Telegram.Enabled && app.config.Telegram.BotToken != "" {
		adapter, err := telegram.NewAdapter(
			&telegram.Config{
				BotToken:       app.config.Telegram.BotToken,
				AllowedUserIDs: app.config.Telegram.AllowIDs,
			},
			app.conversationUseCase,
			app.sendMessageUseCase,
			app.quizFlowUseCase,
			app.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create telegram adapter: %w", err)
		}
		app.telegramAdapter = adapter
	}

	return nil
}

// Start 启动应用程序
func (app *App) Start(ctx context.Context) error {
	app.logger.Info("Starting application")

	hubCtx, cancel := context.WithCancel(ctx)
	app.hubCancel = cancel
	go app.hub.Run(hubCtx)

	if app.personaWatcher != nil {
		app.personaWatcher.Start(hubCtx)
	}

	if err := app.httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if app.telegramAdapter != nil {
		if err := app.telegramAdapter.Start(ctx); err != nil {
			return fmt.Errorf("failed to start telegram adapter: %w", err)
		}
	}

	app.logger.Info("Application started successfully")
	return nil
}

// Stop 停止应用程序
func (app *App) Stop(ctx context.Context) error {
	app.logger.Info("Stopping application")

	if app.telegramAdapter != nil {
		app.telegramAdapter.Stop()
	}

	if app.httpServer != nil {
		if err := app.httpServer.Stop(ctx); err != nil {
			app.logger.Error("Failed to stop HTTP server", zap.Error(err))
		}
	}

	if app.hubCancel != nil {
		app.hubCancel()
	}

	if app.personaWatcher != nil {
		if err := app.personaWatcher.Close(); err != nil {
			app.logger.Error("Failed to close persona watcher", zap.Error(err))
		}
	}

	// 关闭数据库连接
	if app.db != nil {
		sqlDB, err := app.db.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				app.logger.Error("Failed to close database connection", zap.Error(err))
			}
		}
	}

	app.logger.Info("Application stopped successfully")
	return nil
}

// ConversationUseCase returns the roster/lifecycle usecase (used by REPL).
func (app *App) ConversationUseCase() *usecase.ConversationUseCase {
	return app.conversationUseCase
}

// SendMessageUseCase returns the send flow usecase (used by REPL).
func (app *App) SendMessageUseCase() *usecase.SendMessageUseCase {
	return app.sendMessageUseCase
}

// QuizFlowUseCase returns the quiz usecase (used by REPL).
func (app *App) QuizFlowUseCase() *usecase.QuizFlowUseCase {
	return app.quizFlowUseCase
}

// Logger returns the application logger.
func (app *App) Logger() *zap.Logger {
	return app.logger
}
