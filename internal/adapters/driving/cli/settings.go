package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the configuration file.

Keys use dot notation, for example embedding.provider or retriever.k.
API keys can also come from RAGCORE_EMBEDDING_API_KEY, RAGCORE_LLM_API_KEY
or EURI_API_KEY.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting",
	Long: `Change a setting and save the configuration file.

When the value is omitted it is read from stdin without echo, which keeps
API keys out of shell history.

Examples:
  ragcore settings set embedding.provider ollama
  ragcore settings set index.kind hnsw
  ragcore settings set embedding.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the configured providers",
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := settingsService()
	if err != nil {
		return err
	}

	list, err := settings.List()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Printf("Settings (%s)\n", settings.Path())
	cmd.Println()

	section := ""
	for _, s := range list {
		prefix, _, _ := strings.Cut(s.Key, ".")
		if prefix != section {
			if section != "" {
				cmd.Println()
			}
			cmd.Printf("[%s]\n", prefix)
			section = prefix
		}

		value := s.Value
		if value == "" {
			value = "(not set)"
		}
		if s.Default {
			value += " (default)"
		}
		cmd.Printf("  %-30s %s\n", s.Key, value)
	}

	overrides := envOverrides(os.Getenv)
	if len(overrides) > 0 {
		cmd.Println()
		cmd.Println("[environment]")
		for _, o := range overrides {
			cmd.Printf("  %-30s %s\n", o.name, maskAPIKey(o.value))
		}
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	settings, err := settingsService()
	if err != nil {
		return err
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		cmd.Printf("Enter value for %s: ", key)
		value = readSecret(cmd.InOrStdin())
		cmd.Println()
	}

	if err := settings.Set(key, value); err != nil {
		return err
	}

	cmd.Printf("Set %s\n", key)
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	settings, err := settingsService()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cmd.Printf("Embedding: %s %s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	if cfg.LLM.Provider != "" {
		cmd.Printf("LLM:       %s %s\n", cfg.LLM.Provider, cfg.LLM.Model)
	} else {
		cmd.Println("LLM:       (not configured, ask is disabled)")
	}

	if err := settings.Check(cfg); err != nil {
		return fmt.Errorf("provider check failed: %w", err)
	}

	cmd.Println("All configured providers are reachable.")
	return nil
}

type envOverride struct {
	name  string
	value string
}

// envOverrides lists the API key variables that are set.
func envOverrides(getenv func(string) string) []envOverride {
	var out []envOverride
	for _, name := range []string{EnvEmbeddingAPIKey, EnvLLMAPIKey, EnvSharedAPIKey} {
		if v := getenv(name); v != "" {
			out = append(out, envOverride{name: name, value: v})
		}
	}
	return out
}

// readSecret reads a line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
