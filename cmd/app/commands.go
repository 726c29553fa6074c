package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"portfolio-app/internal/modules/portfolio/presentation/view"
	"portfolio-app/internal/presentation/di"
)

// cliOptions 全コマンド共通のフラグ
type cliOptions struct {
	configPath string
	port       string
	asJSON     bool
}

// defaultConfigPath ホームディレクトリ配下の設定ファイルパス
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("Failed to get home directory, using current directory", "error", err)
		homeDir = "."
	}
	return filepath.Join(homeDir, ".portfolio-app", "config.yaml")
}

// newRootCommand ルートコマンドを作成。サブコマンド省略時はserveとして動作する
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "portfolio-app",
		Short:         "GitHub portfolio server",
		Long:          "portfolio-app serves a portfolio page listing a GitHub user's repositories, cached with a one-hour freshness window.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, stdout)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "path to config file")
	root.PersistentFlags().StringVar(&opts.port, "port", os.Getenv("PORT"), "port to listen on (env PORT)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, stdout)
		},
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Load the repository list once and print the rendered fragment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts, stdout)
		},
	}
	renderCmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the resolution as JSON instead of HTML")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the repository cache",
	}
	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the cached record and its freshness",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCacheStatus(cmd.Context(), opts, stdout)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the cached record",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCacheClear(cmd.Context(), opts, stdout)
			},
		},
	)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "portfolio-app %s\n", di.Version)
		},
	}

	root.AddCommand(serveCmd, renderCmd, cacheCmd, versionCmd)
	return root
}

func runServe(opts *cliOptions, stdout io.Writer) error {
	app, err := NewApp(&AppConfig{
		ConfigPath: opts.configPath,
		Port:       opts.port,
	})
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	app.out = stdout

	return app.Run()
}

// withContainer 設定を読み込んでコンテナを作成し、fnの終了後にクローズする
func withContainer(opts *cliOptions, fn func(c *di.Container) error) error {
	container, err := di.NewContainer(loadConfig(opts.configPath))
	if err != nil {
		return fmt.Errorf("failed to initialize DI container: %w", err)
	}
	defer func() { _ = container.Close() }()

	return fn(container)
}

func runRender(ctx context.Context, opts *cliOptions, stdout io.Writer) error {
	return withContainer(opts, func(c *di.Container) error {
		surface := view.NewHTMLSurface(c.Renderer())
		res := c.ShowcaseUseCase().Load(ctx, surface)

		if opts.asJSON {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{
				"outcome":     res.Outcome,
				"stale_hours": res.StaleHours,
				"repos":       res.Repositories,
			})
		}

		if err := surface.Err(); err != nil {
			return err
		}
		_, err := fmt.Fprintln(stdout, surface.Fragment())
		return err
	})
}

func runCacheStatus(ctx context.Context, opts *cliOptions, stdout io.Writer) error {
	return withContainer(opts, func(c *di.Container) error {
		status, err := c.ShowcaseUseCase().Status(ctx)
		if err != nil {
			return fmt.Errorf("reading cache: %w", err)
		}

		fmt.Fprintf(stdout, "Key: %s\n", status.Key)
		if !status.Present {
			fmt.Fprintln(stdout, "No cached record.")
			return nil
		}

		freshness := "stale"
		if status.Fresh {
			freshness = "fresh"
		}
		fmt.Fprintf(stdout, "Fetched: %s (%s ago, %s)\n",
			status.FetchedAt.Format(time.RFC3339), status.Age.Round(time.Second), freshness)
		fmt.Fprintf(stdout, "Repositories: %d\n", status.Count)
		return nil
	})
}

func runCacheClear(ctx context.Context, opts *cliOptions, stdout io.Writer) error {
	return withContainer(opts, func(c *di.Container) error {
		if err := c.ShowcaseUseCase().ClearCache(ctx); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(stdout, "Cleared %s.\n", c.ShowcaseUseCase().CacheKey())
		return nil
	})
}
