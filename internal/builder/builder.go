package builder

import (
	"fmt"
	"net/http"
	"time"

	"github.com/azmilabs/tutor-agent/internal/api"
	chatapi "github.com/azmilabs/tutor-agent/internal/api/chat"
	"github.com/azmilabs/tutor-agent/internal/attachment"
	"github.com/azmilabs/tutor-agent/internal/cli"
	"github.com/azmilabs/tutor-agent/internal/config"
	"github.com/azmilabs/tutor-agent/internal/integration/gemini"
	"github.com/azmilabs/tutor-agent/internal/integration/speech"
	"github.com/azmilabs/tutor-agent/internal/pkg/validator"
	"github.com/azmilabs/tutor-agent/internal/usecase/chat"
	"github.com/azmilabs/tutor-agent/internal/voice"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	chatUC, tutorConnector := buildChatUsecase(cfg, logger)

	// Initialize validators
	chatValidator := validator.NewValidator(cfg.AttachmentCfg)
	logger.Info("Validators initialized")

	// Setup API handlers
	chatHandler := chatapi.NewHandler(chatUC, chatValidator)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(chatHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:    server,
		connector: tutorConnector,
		logger:    logger,
	}, nil
}

// BuildTutorCLI creates the interactive terminal client
func BuildTutorCLI() (*cli.CLI, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building tutor CLI",
		zap.String("environment", cfg.Environment),
	)

	chatUC, tutorConnector := buildChatUsecase(cfg, logger)

	app := cli.New(chatUC, tutorConnector, logger)

	logger.Info("Tutor CLI built successfully",
		zap.String("environment", cfg.Environment),
	)

	return app, logger, nil
}

// buildChatUsecase wires the connectors, attachment pipeline and voice
// bridge shared by the HTTP server and the CLI.
func buildChatUsecase(cfg *config.Config, logger *zap.Logger) (*chat.ChatUsecase, TutorConnector) {
	// Initialize external service connectors (with mock support)
	var tutorConnector TutorConnector
	var transcriber voice.Transcriber
	var synthesizer voice.Synthesizer

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		tutorConnector = gemini.NewMockConnector(logger)
		speechMock := speech.NewMockConnector(logger)
		transcriber = speechMock
		synthesizer = speechMock
	} else {
		logger.Info("Using real connectors for external services")
		tutorConnector = gemini.NewConnector(cfg.GeminiCfg, logger)
		speechConnector := speech.NewConnector(cfg.SpeechCfg, logger)
		transcriber = speechConnector
		synthesizer = speechConnector
	}

	bridge := voice.NewBridge(transcriber, synthesizer, logger)
	pipeline := attachment.NewPipeline(cfg.AttachmentCfg, logger)
	framing := chat.BuildSystemFraming(cfg.TutorCfg)

	chatUC := chat.NewUsecase(
		tutorConnector,
		bridge,
		pipeline,
		cfg.SessionCfg,
		framing,
		logger,
	)
	logger.Info("Use cases initialized")

	return chatUC, tutorConnector
}
