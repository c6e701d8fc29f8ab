package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/techstackph/techstack/internal/client"
	"github.com/techstackph/techstack/internal/config"
	"github.com/techstackph/techstack/internal/content"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/schemas"
	"github.com/techstackph/techstack/internal/server"
	"github.com/techstackph/techstack/internal/store"
	"github.com/techstackph/techstack/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "techstack",
		Short: "TechStackPH website and content API",
		Long: `TechStackPH website and content API.

The content API serves the events, blog and programs feeds and receives the site forms.
The site renders the home page and the htmx fragments for each feed and form, using the content API.`,
	}
	rootCmd.Version = version.Get().String()

	rootCmd.AddCommand(serveCmd(), fetchCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the http server",
		Long: `Start the http server.

Modes:
  all   content API and site (default)
  api   content API only
  site  site only, API_BASE_URL must point at a running content API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !config.ValidServiceModes[mode] {
				return fmt.Errorf("invalid mode %q: use all, api or site", mode)
			}
			return run(mode)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "all", "service mode: all, api or site")
	return cmd
}

func run(mode string) error {
	// SERVICE_MODE is set from the cli flag before the config is loaded
	if err := os.Setenv("SERVICE_MODE", mode); err != nil {
		return fmt.Errorf("could not set service mode: %w", err)
	}

	cfg, corsConfigs, err := config.NewConfig()
	if err != nil {
		return err
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
	slog.SetDefault(appLogger)

	appLogger.Info("starting techstack", slog.String("version", version.Get().Version), slog.String("mode", cfg.ServiceMode))

	var (
		contentStore *store.Store
		validator    *schemas.Validator
	)
	if cfg.ServiceMode != "site" {
		contentStore, err = store.Load(cfg.ContentFile)
		if err != nil {
			appLogger.Error("failed to load content", slog.String("error", err.Error()))
			return err
		}

		validator, err = schemas.NewValidator()
		if err != nil {
			appLogger.Error("failed to compile form schemas", slog.String("error", err.Error()))
			return err
		}
	}
	if cfg.ServiceMode != "api" {
		appLogger.Info("site using content API", slog.String("api_base_url", cfg.APIBaseURL))
	}

	srv := server.NewServer(cfg, corsConfigs, contentStore, validator, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}

func fetchCmd() *cobra.Command {
	var apiBaseURL string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every feed once and print the rendered containers",
		Long: `Fetch every feed from the content API once, the same way the site does, and print the
rendered contents of each feed container. Useful to check a content API deployment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.NewConfig()
			if err != nil {
				return err
			}
			if apiBaseURL != "" {
				cfg.APIBaseURL = apiBaseURL
			}

			appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

			apiClient := client.NewClient(cfg.APIBaseURL,
				client.WithLogger(appLogger),
				client.WithTimeout(cfg.ClientTimeout),
				client.WithRetryLimit(cfg.ClientRetryLimit),
			)

			feeds := content.DefaultFeeds()
			page := content.NewPage()
			regions := make(map[string]*content.Region, len(feeds))
			for _, feed := range feeds {
				regions[feed.Key] = page.Mount(feed.Selector)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			states := content.NewLoader(apiClient, page, feeds, appLogger).FetchAll(ctx)

			out := cmd.OutOrStdout()
			for _, feed := range feeds {
				fmt.Fprintf(out, "<!-- %s (%s): %s -->\n%s\n", feed.Key, feed.Selector, states[feed.Key], regions[feed.Key].HTML())
			}

			failed := make([]string, 0)
			for key, state := range states {
				if state == content.StateError {
					failed = append(failed, key)
				}
			}
			if len(failed) > 0 {
				slices.Sort(failed)
				return fmt.Errorf("feeds failed to load: %v", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiBaseURL, "api", "", "content API base url (defaults to API_BASE_URL)")
	return cmd
}
