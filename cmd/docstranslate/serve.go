package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quantmind-br/docstranslate/internal/app"
	"github.com/quantmind-br/docstranslate/internal/finetune"
	"github.com/quantmind-br/docstranslate/internal/llm"
	"github.com/quantmind-br/docstranslate/internal/server"
	"github.com/quantmind-br/docstranslate/internal/telemetry"
	"github.com/quantmind-br/docstranslate/internal/translate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves GET /parse, POST /translate and POST /finetune.

The LLM provider is configured under llm.* and needs an API key for every
provider except ollama. TOGETHER_API_KEY, OPENAI_API_KEY and ANTHROPIC_API_KEY
are read when llm.api_key is empty.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "Listen host")
	serveCmd.Flags().IntP("port", "p", 0, "Listen port")
	serveCmd.Flags().String("finetune-backend", "", "Fine-tune store backend (memory, badger, redis)")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("finetune.backend", serveCmd.Flags().Lookup("finetune-backend"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry init failed: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	store, err := finetune.New(cfg.FineTune)
	if err != nil {
		return fmt.Errorf("failed to open fine-tune store: %w", err)
	}
	defer store.Close()

	provider, err := llm.NewProviderFromConfig(cfg.LLM, log.WithComponent("llm"))
	if err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	defer provider.Close()

	srv, err := server.New(server.Options{
		Config:      cfg.Server,
		ServiceName: cfg.Telemetry.ServiceName,
		Parser: app.NewIndexer(app.IndexerOptions{
			Archive: cfg.Archive,
			Logger:  log,
		}),
		Translator: translate.NewService(translate.ServiceOptions{
			Store:     store,
			Provider:  provider,
			Logger:    log,
			MaxTokens: cfg.LLM.MaxTokens,
		}),
		Store:  store,
		Logger: log,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("llm_provider", provider.Name()).
		Str("llm_model", cfg.LLM.Model).
		Str("finetune_backend", cfg.FineTune.Backend).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Msg("Starting docstranslate")

	return srv.Run(ctx)
}
