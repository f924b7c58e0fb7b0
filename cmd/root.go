// Package cmd implements the command-line interface for the job fetch
// service. It provides the root command and subcommands for fetching,
// watching and serving.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iAnanich/scrapy-ntk/cmd/fetch"
	"github.com/iAnanich/scrapy-ntk/cmd/httpd"
	"github.com/iAnanich/scrapy-ntk/cmd/spiders"
	"github.com/iAnanich/scrapy-ntk/cmd/watch"
	"github.com/iAnanich/scrapy-ntk/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands.
	Debug bool

	// rootCmd represents the root command for the CLI.
	rootCmd = &cobra.Command{
		Use:   "scrapy-ntk",
		Short: "Incremental fetcher for finished scraping jobs",
		Long: `Fetches finished scraping jobs from the cloud job API incrementally:
each run picks up only the jobs that appeared since the previous run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get the debug flag before creating the logger
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("scrapy-ntk version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(fetch.Command())
	rootCmd.AddCommand(watch.Command())
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(spiders.Command())
}

// initConfig reads in the config file and environment variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Environment variables take precedence over defaults
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional: config can also come from environment
	// variables or defaults
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr,
			"Warning: Config file not found: %v (using defaults and environment variables)\n", err)
	}

	if err := bindFlagsAndEnvVars(); err != nil {
		return err
	}

	setupDevelopmentLogging()

	return nil
}

// bindFlagsAndEnvVars binds command-line flags and well-known environment
// variables to config keys.
func bindFlagsAndEnvVars() error {
	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	if err := viper.BindEnv("app.environment", "APP_ENV"); err != nil {
		return fmt.Errorf("failed to bind APP_ENV: %w", err)
	}
	if err := viper.BindEnv("logger.level", "LOG_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}
	if err := viper.BindEnv("shub.api_key", "SHUB_APIKEY", "SHUB_API_KEY"); err != nil {
		return fmt.Errorf("failed to bind SHUB_APIKEY: %w", err)
	}
	if err := viper.BindEnv("database.password", "DATABASE_PASSWORD", "POSTGRES_PASSWORD"); err != nil {
		return fmt.Errorf("failed to bind DATABASE_PASSWORD: %w", err)
	}
	return nil
}

// setupDevelopmentLogging configures development logging based on
// environment and the debug flag.
func setupDevelopmentLogging() {
	debugFlag := Debug || viper.GetBool("app.debug")
	isDev := viper.GetString("app.environment") == "development"

	if debugFlag {
		viper.Set("logger.level", "debug")
	}
	if isDev {
		viper.Set("logger.development", true)
		viper.Set("logger.enable_color", true)
		viper.Set("logger.encoding", "console")
	}

	Debug = debugFlag
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":        "scrapy-ntk",
		"environment": "production",
		"debug":       false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"development":  false,
		"encoding":     "json",
		"output_paths": []string{"stdout"},
		"enable_color": false,
	})

	viper.SetDefault("database", map[string]any{
		"host":    "127.0.0.1",
		"port":    "5432",
		"user":    "postgres",
		"dbname":  "scrapy_ntk",
		"sslmode": "disable",
	})

	viper.SetDefault("shub", map[string]any{
		"base_url":  "",
		"timeout":   config.DefaultRequestTimeout.String(),
		"page_size": config.DefaultPageSize,
	})

	viper.SetDefault("fetch", map[string]any{
		"max_fetched_jobs":    0,
		"max_exclude_matches": config.DefaultMaxExcludeMatches,
		"max_total_excluded":  0,
		"max_returned_jobs":   0,
	})

	viper.SetDefault("server", map[string]any{
		"address":       config.DefaultServerAddress,
		"read_timeout":  "15s",
		"write_timeout": "15s",
	})

	viper.SetDefault("watch", map[string]any{
		"schedule": config.DefaultWatchSchedule,
	})
}
