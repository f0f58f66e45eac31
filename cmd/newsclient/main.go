// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the newsclient CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/newsclient/internal/events"
	"github.com/pdiddy/newsclient/internal/httputil"
	"github.com/pdiddy/newsclient/internal/newsapi"
	"github.com/pdiddy/newsclient/internal/secrets"
	"github.com/pdiddy/newsclient/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds values loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the newsclient CLI.
var rootCmd = &cobra.Command{
	Use:   "newsclient",
	Short: "Query NewsAPI top headlines and full-text search",
	Long: `newsclient lists top headlines by region and searches all articles by
keyword through the NewsAPI provider.

The API key is read from NEWSCLIENT_API_KEY or NEWS_API_KEY (a .env file in the
working directory is loaded first), then from .secrets/newsapi-api-key, then
from api_key in the config file. There is no built-in key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(cmd)

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			slog.Debug("loaded secrets", slog.Any("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./newsclient.yaml or ~/.config/newsclient/newsclient.yaml)")
	pf.String("base-url", newsapi.DefaultBaseURL, "provider base URL")
	pf.Duration("timeout", newsapi.DefaultTimeout, "timeout per request attempt")
	pf.Int("max-retries", httputil.DefaultMaxRetries, "retries after the first attempt on 5xx and transport failures")
	pf.String("journal", "", "SQLite file recording every request attempt (disabled when empty)")
	pf.Bool("verbose", false, "log every request attempt")
	pf.String("log-format", "text", "log format on stderr: text or json")

	viper.BindPFlag("base_url", pf.Lookup("base-url"))
	viper.BindPFlag("timeout", pf.Lookup("timeout"))
	viper.BindPFlag("max_retries", pf.Lookup("max-retries"))
	viper.BindPFlag("journal", pf.Lookup("journal"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: could not load .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("newsclient")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "newsclient"))
		}
	}

	viper.SetEnvPrefix("NEWSCLIENT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogging(cmd *cobra.Command) {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	if format, _ := cmd.Flags().GetString("log-format"); format == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	}
	slog.SetDefault(slog.New(handler))
}

// clientConfig collects settings from flags, environment and config file. The
// credential comes from the environment, then .secrets/, then the config file.
func clientConfig() (types.ClientConfig, error) {
	cfg := types.ClientConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: "newsclient/" + version,
		},
		BaseURL:     viper.GetString("base_url"),
		MaxRetries:  viper.GetInt("max_retries"),
		JournalPath: viper.GetString("journal"),
	}
	key, source := secrets.Credential(os.Getenv, loadedSecrets)
	if key == "" && viper.InConfig("api_key") {
		key, source = viper.GetString("api_key"), "config:"+viper.ConfigFileUsed()
	}
	if err := newsapi.ValidateCredential(key); err != nil {
		return cfg, fmt.Errorf("%w (set NEWSCLIENT_API_KEY or .secrets/%s)", err, secrets.NewsAPIKeyFile)
	}
	cfg.APIKey = key
	slog.Debug("credential resolved", slog.String("source", source))
	return cfg, nil
}

// newClient builds a client that logs attempts through slog and, when a
// journal path is configured, records them in the journal too. The returned
// func releases the journal.
func newClient(cfg types.ClientConfig) (*newsapi.Client, func(), error) {
	sinks := []events.Sink{events.NewSlogSink(slog.Default())}
	cleanup := func() {}

	if cfg.JournalPath != "" {
		j, err := events.OpenJournal(cfg.JournalPath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, j)
		cleanup = func() { j.Close() }
	}

	c, err := newsapi.NewFromConfig(cfg, newsapi.WithSink(events.Multi(sinks...)))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	slog.Debug("client ready",
		slog.String("base_url", cfg.BaseURL),
		slog.Duration("worst_case", c.WorstCaseDuration()),
	)
	return c, cleanup, nil
}

// exitCode maps error kinds to process exit codes.
func exitCode(err error) int {
	switch newsapi.KindOf(err) {
	case newsapi.KindConfig, newsapi.KindInvalidArgument:
		return 2
	case newsapi.KindRequestRejected:
		return 3
	case newsapi.KindProviderUnavailable:
		return 4
	case newsapi.KindResponseMalformed:
		return 5
	case newsapi.KindCancelled:
		return 130
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}
