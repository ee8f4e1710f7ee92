package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/tradeadvisor/internal/cli"
	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/journal"
	"github.com/aristath/tradeadvisor/internal/modules/rebalancing"
	"github.com/aristath/tradeadvisor/internal/scheduler"
	"github.com/aristath/tradeadvisor/internal/server"
)

// journalMaintenanceCron runs the journal integrity check daily at 03:00
const journalMaintenanceCron = "0 0 3 * * *"

type rootOptions struct {
	configPath string
	paper      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rebalance := newRebalanceCmd(opts)
	rootCmd := &cobra.Command{
		Use:   "tradeadvisor",
		Short: "Technical-signal portfolio advisor",
		Long: `tradeadvisor scores every held asset for an expected fall using technical
indicators and candlestick patterns, then walks you through selling what is
expected to fall and buying more of the rest within your buying power.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          rebalance.RunE,
	}
	rootCmd.Flags().AddFlagSet(rebalance.Flags())

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "tradeadvisor.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&opts.paper, "paper", false, "Use the simulated paper broker")

	rootCmd.AddCommand(rebalance)
	rootCmd.AddCommand(newAdviseCmd(opts))
	rootCmd.AddCommand(newSignalCmd(opts))
	rootCmd.AddCommand(newQuoteCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newScheduleCmd(opts))

	return rootCmd
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// resolveClass parses the --class flag or prompts when it is empty
func resolveClass(flag string) (domain.AssetClass, error) {
	if flag == "" {
		return cli.PromptAssetClass()
	}
	return domain.ParseAssetClass(flag)
}

func newRebalanceCmd(opts *rootOptions) *cobra.Command {
	var classFlag string

	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Check the portfolio and rebalance it interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := resolveClass(classFlag)
			if err != nil {
				return err
			}

			a, err := newApp(opts.configPath, opts.paper)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			return runRebalance(ctx, a, class)
		},
	}
	cmd.Flags().StringVar(&classFlag, "class", "", "Asset type: s for stocks, c for crypto (prompts when empty)")
	return cmd
}

func runRebalance(ctx context.Context, a *app, class domain.AssetClass) error {
	out := os.Stdout
	svc := a.advisor

	var rec *journal.Recorder
	if a.journal != nil {
		var err error
		rec, err = a.journal.Begin(ctx, journal.RunRebalance, class)
		if err != nil {
			a.log.Warn().Err(err).Msg("Journal unavailable, continuing without it")
		} else {
			svc = svc.WithObserver(rec)
		}
	}

	fmt.Fprintln(out, cli.Header("Portfolio check"))
	advice, positions, err := svc.Scan(ctx, class)
	if err != nil {
		finishRun(ctx, rec, nil, err)
		return err
	}
	cli.PrintAdvice(out, advice, positions)

	buyingPower, err := a.gateway.GetBuyingPower(ctx)
	if err != nil {
		err = fmt.Errorf("failed to get buying power: %w", err)
		finishRun(ctx, rec, nil, err)
		return err
	}
	fmt.Fprintln(out, cli.BuyingPowerLine(buyingPower))

	fmt.Fprintln(out, cli.Header("Rebalancing"))
	engine := rebalancing.NewEngine(a.gateway, cli.NewSurveyDecider(out), a.log)
	engine.AddObserver(cli.NewConsoleObserver(out))
	if rec != nil {
		engine.AddObserver(rec)
	}

	report, err := engine.Run(ctx, positions, advice.SignalMap(), buyingPower)
	if report != nil {
		cli.PrintReport(out, report)
	}
	finishRun(ctx, rec, report, err)
	return err
}

func finishRun(ctx context.Context, rec *journal.Recorder, report *rebalancing.Report, err error) {
	if rec == nil {
		return
	}
	// The run context may already be cancelled
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	rec.Finish(finishCtx, report, err)
}

func newAdviseCmd(opts *rootOptions) *cobra.Command {
	var classFlag string

	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Check which holdings are expected to fall",
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := resolveClass(classFlag)
			if err != nil {
				return err
			}

			a, err := newApp(opts.configPath, opts.paper)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			svc := a.advisor
			var rec *journal.Recorder
			if a.journal != nil {
				if rec, err = a.journal.Begin(ctx, journal.RunScan, class); err != nil {
					a.log.Warn().Err(err).Msg("Journal unavailable, continuing without it")
					rec = nil
				} else {
					svc = svc.WithObserver(rec)
				}
			}

			advice, positions, err := svc.Scan(ctx, class)
			finishRun(ctx, rec, nil, err)
			if err != nil {
				return err
			}
			cli.PrintAdvice(cmd.OutOrStdout(), advice, positions)
			return nil
		},
	}
	cmd.Flags().StringVar(&classFlag, "class", "", "Asset type: s for stocks, c for crypto (prompts when empty)")
	return cmd
}

func newSignalCmd(opts *rootOptions) *cobra.Command {
	var classFlag string

	cmd := &cobra.Command{
		Use:   "signal TICKER",
		Short: "Score a single ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := domain.ParseAssetClass(classFlag)
			if err != nil {
				return err
			}

			a, err := newApp(opts.configPath, opts.paper)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			ev, err := a.advisor.EvaluateTicker(ctx, strings.ToUpper(args[0]), class)
			if err != nil {
				return err
			}
			for _, line := range cli.EvaluationLines(ev) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&classFlag, "class", "s", "Asset type: s for stocks, c for crypto")
	return cmd
}

func newQuoteCmd(opts *rootOptions) *cobra.Command {
	var classFlag string

	cmd := &cobra.Command{
		Use:   "quote TICKER",
		Short: "Print the latest trade price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := domain.ParseAssetClass(classFlag)
			if err != nil {
				return err
			}

			a, err := newApp(opts.configPath, opts.paper)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext()
			defer cancel()

			price, err := a.gateway.GetLatestPrice(ctx, strings.ToUpper(args[0]), class)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.QuoteLine(args[0], price))
			return nil
		},
	}
	cmd.Flags().StringVar(&classFlag, "class", "s", "Asset type: s for stocks, c for crypto")
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var devMode bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.configPath, opts.paper)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(server.Config{
				Log:       a.log,
				Advisor:   a.advisor,
				Journal:   a.journal,
				JournalDB: a.journalDB,
				Port:      a.cfg.Port,
				DevMode:   devMode,
			})

			ctx, cancel := signalContext()
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&devMode, "dev", false, "Disable response compression")
	return cmd
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run advisory scans on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.configPath, opts.paper)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.journal == nil {
				a.log.Warn().Msg("Journal is disabled, scan results will only be logged")
			}

			classes, err := a.cfg.Classes()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			advisory := scheduler.Advisory{
				Scan:     scheduler.NewAdvisoryScanJob(a.advisor, a.journal, classes, a.log),
				ScanCron: a.cfg.AdvisorCron,
			}
			if a.journalDB != nil {
				advisory.Check = scheduler.NewCheckJournalJob(a.journalDB, a.log)
				advisory.CheckCron = journalMaintenanceCron
			}

			sched := scheduler.New(a.log)
			if err := sched.RegisterAdvisory(advisory); err != nil {
				return err
			}

			if runNow {
				if err := sched.RunNow(ctx, advisory.Scan); err != nil {
					a.log.Error().Err(err).Msg("Initial scan failed")
				}
			}

			sched.Start()
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run one scan immediately before waiting for the schedule")
	return cmd
}

// isSelectionError reports whether err came from an unrecognized asset type
func isSelectionError(err error) bool {
	var sel *domain.InvalidSelectionError
	return errors.As(err, &sel)
}
