package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/heartline/heartline/internal/application"
	"github.com/heartline/heartline/internal/infrastructure/config"
	"github.com/heartline/heartline/internal/infrastructure/logger"
	"github.com/heartline/heartline/internal/interfaces/repl"
)

const (
	appName    = "heartline"
	appVersion = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Heartline — a gamified chat simulator",
		Long:  "Heartline — text your way into someone's heart. Interest meter, lives, quizzes, and a coach that stops you before you blow it.",
		RunE:  runPlay,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "play",
		Short: "Play in the terminal (default)",
		RunE:  runPlay,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the full service (HTTP API + WebSocket + Telegram)",
		RunE:  runServe,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", appName, appVersion)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runPlay starts the interactive terminal game.
func runPlay(cmd *cobra.Command, args []string) error {
	// Quiet console logging so the chat stays readable.
	log, err := logger.NewLogger(logger.Config{
		Level:      "warn",
		Format:     "console",
		OutputPath: "stderr",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := application.NewAppCLI(cfg, log)
	if err != nil {
		return fmt.Errorf("init application: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := repl.New(
		app.ConversationUseCase(),
		app.SendMessageUseCase(),
		app.QuizFlowUseCase(),
		log,
	)
	return r.Run(ctx)
}

// runServe starts the full service and blocks until a shutdown signal.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: "stdout",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting Heartline",
		zap.String("version", appVersion),
		zap.String("mode", cfg.Server.Mode),
	)

	app, err := application.NewApp(cfg, log)
	if err != nil {
		log.Error("Failed to initialize application", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return app.Stop(shutdownCtx)
}
