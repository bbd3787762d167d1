// Package cli provides the ragcore command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Environment variables overlaid on the configuration file.
const (
	EnvEmbeddingAPIKey = "RAGCORE_EMBEDDING_API_KEY"
	EnvLLMAPIKey       = "RAGCORE_LLM_API_KEY"
	// EnvSharedAPIKey is used for both providers when the specific ones are unset.
	EnvSharedAPIKey = "EURI_API_KEY"
)

var (
	// version is set by SetVersion from build flags.
	version = "dev"

	verbose   bool
	configDir string

	factory *Factory
)

// Pipeline is the set of services a command runs against.
type Pipeline struct {
	Config    domain.Config
	Indexer   driving.Indexer
	Retriever driving.Retriever
	Answer    driving.AnswerService

	// NewSync builds a sync orchestrator over local paths and an optional
	// YAML manifest.
	NewSync func(paths []string, manifestPath string) (driving.SyncOrchestrator, error)

	// Metrics serves the metrics registry. Optional.
	Metrics http.Handler

	// Warnings are non-fatal setup problems, such as a disabled LLM.
	Warnings []string

	// Close releases providers and storage. Optional.
	Close func()
}

// Factory builds services once flags have been parsed.
type Factory struct {
	// Settings opens the settings service for a config directory.
	// An empty directory means the default location.
	Settings func(configDir string) (driving.SettingsService, error)

	// Pipeline wires the index, retriever and answer services for cfg.
	Pipeline func(ctx context.Context, cfg domain.Config) (*Pipeline, error)
}

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Retrieval-augmented generation over local documents",
	Long: `ragcore chunks documents, embeds the chunks, stores them in a vector
index and retrieves the most relevant ones for a query. Retrieved chunks can
be assembled into a prompt for a language model.

Get started:
  ragcore settings set embedding.provider ollama
  ragcore index ~/notes
  ragcore search "how do I rotate keys"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.ragcore)")
}

// SetFactory sets the service factory used by commands.
func SetFactory(f *Factory) {
	factory = f
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// settingsService opens the settings service for --config.
func settingsService() (driving.SettingsService, error) {
	if factory == nil || factory.Settings == nil {
		return nil, errors.New("settings service not configured")
	}
	return factory.Settings(configDir)
}

// loadConfig reads the configuration and overlays the environment.
func loadConfig() (domain.Config, error) {
	settings, err := settingsService()
	if err != nil {
		return domain.Config{}, err
	}
	cfg, err := settings.Config()
	if err != nil {
		return domain.Config{}, fmt.Errorf("loading config from %s: %w", settings.Path(), err)
	}
	applyEnv(&cfg, os.Getenv)
	return cfg, nil
}

// openPipeline loads the configuration and wires the services.
// The caller must call closePipeline.
func openPipeline(cmd *cobra.Command) (*Pipeline, error) {
	if factory == nil || factory.Pipeline == nil {
		return nil, errors.New("services not configured")
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	p, err := factory.Pipeline(commandContext(cmd), cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range p.Warnings {
		logger.Warn("%s", w)
	}
	return p, nil
}

func closePipeline(p *Pipeline) {
	if p != nil && p.Close != nil {
		p.Close()
	}
}

// applyEnv overlays API keys from the environment. Values already set in the
// configuration file win over the shared key but not over the specific ones.
func applyEnv(cfg *domain.Config, getenv func(string) string) {
	shared := getenv(EnvSharedAPIKey)

	if key := getenv(EnvEmbeddingAPIKey); key != "" {
		cfg.Embedding.APIKey = key
	} else if cfg.Embedding.APIKey == "" && shared != "" {
		cfg.Embedding.APIKey = shared
	}

	if key := getenv(EnvLLMAPIKey); key != "" {
		cfg.LLM.APIKey = key
	} else if cfg.LLM.APIKey == "" && shared != "" {
		cfg.LLM.APIKey = shared
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
