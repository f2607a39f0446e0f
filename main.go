package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jokebot/bot"
	"jokebot/config"
	"jokebot/generator"
	"jokebot/logging"
	"jokebot/publisher"
	"jokebot/server"
)

var (
	configPath string
	verbose    bool
	dryRun     bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jokebot",
		Short: "Generate jokes with several LLM providers and post them to X",
		Long: `jokebot asks every configured LLM provider for a joke at the same time and posts
each joke it gets back to X (Twitter).

Run without a sub-command to post continuously every 60 minutes.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContinuous(cmd, 0)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to an optional YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "format posts but never submit them")

	root.AddCommand(newOnceCmd(), newRunCmd(), newServeCmd())
	return root
}

func newOnceCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle; the prompt is read from stdin when it is not a terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			if prompt == "" {
				prompt = readStdinPrompt(cmd.InOrStdin(), a.logger)
			}
			report := a.bot.RunOnce(cmd.Context(), prompt)
			if report == nil {
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "prompt to use instead of stdin or the catalog")
	return cmd
}

func newRunCmd() *cobra.Command {
	var interval int
	cmd := &cobra.Command{
		Use:   "run [interval-minutes]",
		Short: "Run a cycle every interval until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					logging.Stderr().Warn("Invalid interval, using default", zap.String("arg", args[0]), zap.Int("minutes", config.DefaultIntervalMinutes))
					n = config.DefaultIntervalMinutes
				}
				interval = n
			}
			return runContinuous(cmd, interval)
		},
	}
	cmd.Flags().IntVar(&interval, "interval", 0, "minutes between cycles (default from config, 60)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an HTTP API that triggers cycles and previews posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			srv, err := server.New(a.bot, a.coordinator.Providers(), a.pub, a.logger.Named("http"))
			if err != nil {
				return err
			}
			listen := a.cfg.ServerAddr
			if addr != "" {
				listen = addr
			}
			httpSrv := &http.Server{Addr: listen, Handler: srv.Routes(), ReadHeaderTimeout: 10 * time.Second}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			a.logger.Info("Starting web server", zap.String("addr", listen))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (overrides config server_addr)")
	return cmd
}

func runContinuous(cmd *cobra.Command, intervalMinutes int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	interval := a.cfg.Interval()
	if intervalMinutes > 0 {
		interval = time.Duration(intervalMinutes) * time.Minute
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.bot.RunContinuous(ctx, interval)
	return nil
}

type app struct {
	cfg         config.Config
	logger      *zap.Logger
	coordinator *generator.Coordinator
	pub         *publisher.Publisher
	bot         *bot.Bot
}

func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dryRun {
		cfg.DryRun = true
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Verbose: verbose})
	if err != nil {
		return nil, err
	}

	coordinator := buildCoordinator(cfg, logger)
	pub := publisher.New(cfg.Publisher(), &http.Client{Timeout: cfg.RequestTimeout()}, logger.Named("publisher"))
	b, err := bot.New(coordinator, pub, bot.WithLogger(logger.Named("bot")))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, coordinator: coordinator, pub: pub, bot: b}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// buildCoordinator registers one adapter per enabled provider. A provider whose client
// cannot be built is logged and left out.
func buildCoordinator(cfg config.Config, logger *zap.Logger) *generator.Coordinator {
	coordinator := generator.NewCoordinator(logger.Named("coordinator"))
	for _, settings := range cfg.LLMSettings() {
		llm, err := generator.NewLLM(settings)
		if err != nil {
			logger.Error("skipping llm provider", zap.String("provider", settings.Provider), zap.Error(err))
			continue
		}
		adapter, err := generator.NewAdapter(llm, logger.Named("provider"), generator.WithMarkdownFlattening(cfg.FlattenMarkdown))
		if err != nil {
			logger.Error("skipping llm provider", zap.String("provider", settings.Provider), zap.Error(err))
			continue
		}
		coordinator.Register(adapter)
		logger.Info("llm provider enabled", zap.String("provider", settings.Provider), zap.String("model", settings.Model))
	}
	return coordinator
}

// readStdinPrompt returns piped stdin, or "" when stdin is an interactive terminal.
func readStdinPrompt(in io.Reader, logger *zap.Logger) string {
	if f, ok := in.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			return ""
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		logger.Warn("failed to read prompt from stdin", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(string(data))
}
