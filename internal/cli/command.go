package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/alpacatrans/internal"
	"codeberg.org/snonux/alpacatrans/internal/checkpoint"
	"codeberg.org/snonux/alpacatrans/internal/translation"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "alpacatrans",
		Short: "Alpaca dataset English to Polish translator",
		Long: `alpacatrans translates an Alpaca instruction dataset from English to
Polish with a locally hosted language model.

Translated records are appended to a JSON lines file so an interrupted
run resumes where it stopped. A recovery pass re-translates records that
were skipped or written broken.

Examples:
  alpacatrans                               # Translate data/alpaca_data.json
  alpacatrans --batch-size 5 --model llama3 # Smaller batches, other model
  alpacatrans --recover                     # Retry skipped or broken records
  alpacatrans --status                      # Show checkpoint state
  alpacatrans --finalize                    # Sort by index and strip it`,
		Args:         cobra.NoArgs,
		Version:      internal.Version,
		SilenceUsage: true,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.alpacatrans.yaml)")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")

	// Local flags
	cmd.Flags().StringVarP(&flags.InputPath, "input", "i", flags.InputPath, "Input JSON file path")
	cmd.Flags().StringVarP(&flags.OutputPath, "output", "o", flags.OutputPath, "Output JSONL file path")
	cmd.Flags().IntVarP(&flags.BatchSize, "batch-size", "b", flags.BatchSize, "Number of items per request batch")
	cmd.Flags().BoolVar(&flags.Recover, "recover", false, "Enable recovery mode for skipped/malformed items")
	cmd.Flags().BoolVar(&flags.Finalize, "finalize", false, "Sort the output by index, drop duplicates and strip the index field")
	cmd.Flags().BoolVar(&flags.Status, "status", false, "Show translation progress of the output file")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List models served by the backend")
	cmd.Flags().StringVar(&flags.ResumeStrategy, "resume-strategy", flags.ResumeStrategy, "How to find the resume point: last-line or scan")

	// Backend flags
	cmd.Flags().StringVar(&flags.Provider, "provider", flags.Provider, "Backend provider: openai (any OpenAI-compatible server, e.g. Ollama) or gemini")
	cmd.Flags().StringVar(&flags.BaseURL, "base-url", flags.BaseURL, "Backend API base URL")
	cmd.Flags().StringVarP(&flags.Model, "model", "m", flags.Model, "Model identifier")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Per-request timeout (0 uses the transport default)")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("input.path", cmd.Flags().Lookup("input"))
	viper.BindPFlag("output.path", cmd.Flags().Lookup("output"))
	viper.BindPFlag("translate.batch_size", cmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("resume.strategy", cmd.Flags().Lookup("resume-strategy"))
	viper.BindPFlag("backend.provider", cmd.Flags().Lookup("provider"))
	viper.BindPFlag("backend.base_url", cmd.Flags().Lookup("base-url"))
	viper.BindPFlag("backend.model", cmd.Flags().Lookup("model"))
	viper.BindPFlag("backend.timeout", cmd.Flags().Lookup("timeout"))
	viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	// A .env file in the working directory may carry API keys
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".alpacatrans" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".alpacatrans")
	}

	// Environment variables
	viper.SetEnvPrefix("ALPACATRANS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Resolve fills flags with the merged flag, config file and environment
// values held by viper
func Resolve(flags *Flags) {
	flags.InputPath = viper.GetString("input.path")
	flags.OutputPath = viper.GetString("output.path")
	flags.BatchSize = viper.GetInt("translate.batch_size")
	flags.ResumeStrategy = viper.GetString("resume.strategy")
	flags.Provider = viper.GetString("backend.provider")
	flags.BaseURL = viper.GetString("backend.base_url")
	flags.Model = viper.GetString("backend.model")
	flags.Timeout = viper.GetDuration("backend.timeout")
	flags.Debug = viper.GetBool("debug")
}

// Validate checks flag combinations before any work starts
func (f *Flags) Validate() error {
	if f.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", f.BatchSize)
	}

	modes := 0
	for _, set := range []bool{f.Recover, f.Finalize, f.Status, f.ListModels} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("--recover, --finalize, --status and --list-models are mutually exclusive")
	}

	switch f.ResumeStrategy {
	case checkpoint.StrategyLastLine, checkpoint.StrategyScan:
	default:
		return fmt.Errorf("unknown resume strategy: %s", f.ResumeStrategy)
	}

	if f.InputPath == "" || f.OutputPath == "" {
		return fmt.Errorf("input and output paths are required")
	}
	return nil
}

// GetAPIKey retrieves the backend API key from environment or config
func GetAPIKey(provider string) string {
	envVar := "OPENAI_API_KEY"
	if strings.EqualFold(provider, "gemini") {
		envVar = "GEMINI_API_KEY"
	}

	// First check environment variable
	if key := os.Getenv(envVar); key != "" {
		return key
	}

	// Then check config file
	if key := viper.GetString("backend.api_key"); key != "" {
		return key
	}

	if strings.EqualFold(provider, "gemini") {
		return ""
	}
	return translation.DefaultAPIKey
}

// BackendConfig builds the translation backend settings from flags
func BackendConfig(flags *Flags) translation.Config {
	return translation.Config{
		Provider: flags.Provider,
		BaseURL:  flags.BaseURL,
		APIKey:   GetAPIKey(flags.Provider),
		Model:    flags.Model,
		Timeout:  flags.Timeout,
	}
}
