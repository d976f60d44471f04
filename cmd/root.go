package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spigell/shl-recommender/internal/logger"
	"github.com/spigell/shl-recommender/internal/secrets"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "shl-recommender"

	defaultCatalogPath = "data/catalog.json"
	defaultListen      = ":8080"
)

type Config struct {
	CatalogFile string         `mapstructure:"catalog-file"`
	IndexFile   string         `mapstructure:"index-file"`
	Provider    string         `mapstructure:"provider"`
	Gemini      *GeminiConfig  `mapstructure:"gemini"`
	Scraper     *ScraperConfig `mapstructure:"scraper"`
	Server      *ServerConfig  `mapstructure:"server"`
}

type GeminiConfig struct {
	APIKey        string   `mapstructure:"api-key"`
	APIKeyFile    string   `mapstructure:"api-key-file"`
	EmbedModel    string   `mapstructure:"embed-model"`
	EmbedDim      int      `mapstructure:"embed-dim"`
	SummaryModels []string `mapstructure:"summary-models"`
}

type ScraperConfig struct {
	BaseURL string `mapstructure:"base-url"`
	Enrich  bool   `mapstructure:"enrich"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "shl-recommender scrapes the SHL assessment catalog and recommends assessments for a job description",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Pick up GEMINI_API_KEY and friends from a local .env file.
			_ = godotenv.Load()
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key", "GEMINI_API_KEY"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY environment variable: %v", err)
	}
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is shl-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless requested explicitly. A file that
	// exists but does not parse is always fatal.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && cfgFile == "" {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	return l
}

func mustConfig(logger *zap.Logger) *Config {
	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return config
}

func debugConfig(logger *zap.Logger, config *Config) {
	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))
}

// stringFlagOrConfig resolves a string setting: an explicitly set flag wins,
// then a non-empty configured value, then the flag default.
func stringFlagOrConfig(cmd *cobra.Command, name, configured string) string {
	flag := cmd.Flag(name)
	if flag == nil {
		return configured
	}
	if flag.Changed || configured == "" {
		return flag.Value.String()
	}

	return configured
}

// loadGeminiKey resolves the optional gemini credential. A configured file
// takes precedence over an inline value; an empty result selects the local
// provider downstream.
func loadGeminiKey(config *Config) (string, error) {
	var value, file string
	if config != nil && config.Gemini != nil {
		value = config.Gemini.APIKey
		file = config.Gemini.APIKeyFile
	}
	if value == "" {
		value = viper.GetString("gemini.api-key")
	}
	if file == "" {
		file = viper.GetString("gemini.api-key-file")
	}

	return secrets.LoadOptional(secrets.Source{
		Name:  "gemini api key",
		Value: value,
		File:  file,
	})
}
