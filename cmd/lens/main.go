package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sentiment-lens/internal/logger"
	"sentiment-lens/internal/scheduler"
	"sentiment-lens/internal/status"
	"sentiment-lens/internal/store"
	"sentiment-lens/internal/trace"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "lens",
	Short:         "SentimentLens - news sentiment monitoring for tracked tickers",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeSystem()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "config file path")

	tickersCmd.AddCommand(tickersAddCmd, tickersListCmd)
	rootCmd.AddCommand(runCmd, onceCmd, tickersCmd, classifyCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	shutdownTracer()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline on a fixed interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService(cmd.Context())
	},
}

func runService(ctx context.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cycle, err := initializePipeline(ctx, cfg, st)
	if err != nil {
		return err
	}

	logs := initializeCycleLog(ctx, cfg)
	sinks := []scheduler.Sink{logs.Sink}

	dg := initializeDigest(cfg, st)
	if dg != nil {
		sinks = append(sinks, digestSink(dg))
	}

	sched := scheduler.New(cycle, cfg.Schedule.Interval, sinks...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	if cfg.Status.Addr != "" {
		srv := status.NewServer(cfg.Status.Addr, sched)
		g.Go(func() error { return srv.Serve(gctx) })
	}

	logger.Info(ctx, "SentimentLens started",
		"interval", cfg.Schedule.Interval.String(),
		"status_addr", cfg.Status.Addr,
	)
	err = g.Wait()

	logger.Info(context.Background(), "Shutting down...")
	if dg != nil {
		writeDigest(context.Background(), dg)
	}
	return err
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single ingest, classify, alert cycle and print its report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		cycle, err := initializePipeline(ctx, cfg, st)
		if err != nil {
			return err
		}
		logs := initializeCycleLog(ctx, cfg)

		report, runErr := scheduler.New(cycle, cfg.Schedule.Interval, logs.Sink).RunOnce(ctx)
		if err := printJSON(cmd, report); err != nil {
			return err
		}
		return runErr
	},
}

var tickersCmd = &cobra.Command{
	Use:   "tickers",
	Short: "Manage tracked tickers",
}

var tickersAddCmd = &cobra.Command{
	Use:   "add SYMBOL...",
	Short: "Start tracking one or more symbols",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, sym := range args {
			t, err := st.AddTicker(ctx, sym)
			switch {
			case errors.Is(err, store.ErrTickerExists):
				fmt.Fprintf(cmd.OutOrStdout(), "%s already tracked\n", strings.ToUpper(strings.TrimSpace(sym)))
			case err != nil:
				return err
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "tracking %s\n", t.Symbol)
			}
		}
		return nil
	},
}

var tickersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked tickers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		tickers, err := st.ListTickers(ctx)
		if err != nil {
			return err
		}
		for _, t := range tickers {
			fmt.Fprintln(cmd.OutOrStdout(), t.Symbol)
		}
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify TEXT...",
	Short: "Classify a piece of text with the configured backend",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		c, err := initializeClassifier(ctx, cfg, loadSecrets())
		if err != nil {
			return err
		}
		p, err := c.Predict(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd, p)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", trace.ServiceName, trace.ServiceVersion)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
