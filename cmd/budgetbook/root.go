package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"budgetbook/internal/backend"
	"budgetbook/internal/cli"
	"budgetbook/internal/config"
	"budgetbook/internal/console"
	"budgetbook/internal/core"
	"budgetbook/internal/launcher"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
	"budgetbook/internal/services"
)

// app carries what the subcommands share once the root has initialized.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "budgetbook",
		Short: "Track expenses against a budget in an Excel workbook",
		Long: `budgetbook keeps an expense ledger with a running Remaining Budget column.
Each ledger is a workbook; start a new one or open an existing .xlsx file.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("dir", "", "directory holding the workbooks (SHEETS_DIR)")
	flags.String("backend", "", "storage backend: xlsx, sqlite, sheets or memory (DATA_BACKEND)")
	flags.String("log-level", "", "log level: debug, info, warn or error (LOG_LEVEL)")

	rootCmd.AddCommand(a.newCmd(), a.openCmd(), a.trackCmd())
	return rootCmd
}

// init loads .env and the configuration. Flags that were set win over the
// environment.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	v := viper.New()
	for flag, key := range map[string]string{"dir": "SHEETS_DIR", "backend": "DATA_BACKEND", "log-level": "LOG_LEVEL"} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	cfg := config.LoadFrom(v)
	if err := cfg.Validate(); err != nil {
		return &core.StartupConfigError{Reason: err.Error()}
	}

	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg.LogLevel, cmd.ErrOrStderr())
	return nil
}

func (a *app) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new TITLE",
		Short: "Start a new sheet named TITLE",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := launcher.NewSheet(a.cfg.SheetsDir, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.track(cmd, target)
		},
	}
}

func (a *app) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open FILE",
		Short: "Open an existing .xlsx sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := launcher.OpenSheet(args[0])
			if err != nil {
				return err
			}
			return a.track(cmd, target)
		},
	}
}

// trackCmd is the tracking screen entry point used by new and open. It
// refuses to start unless both the file and the title are given.
func (a *app) trackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track FILE TITLE",
		Short: "Track expenses in FILE under TITLE",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &core.StartupConfigError{
					Reason: fmt.Sprintf("expected a file and a title, got %d argument(s); start from 'new' or 'open'", len(args)),
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[1])
			if title == "" {
				return &core.StartupConfigError{Reason: "title must not be empty"}
			}
			return a.track(cmd, launcher.Target{Path: args[0], Title: title})
		},
	}
}

func (a *app) track(cmd *cobra.Command, target launcher.Target) error {
	ctx := cmd.Context()
	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return err
	}

	factory := backend.NewFactory(a.logger)
	be, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	if be.Cleanup != nil {
		defer be.Cleanup()
	}
	pub, err := factory.CreatePublisher(ctx, bcfg)
	if err != nil {
		return err
	}
	if pub.Cleanup != nil {
		defer pub.Cleanup()
	}

	svc := services.NewLedgerService(be.Backend.StoreFor(target), pub.Publisher, services.Config{
		File:  target.Path,
		Title: target.Title,
		Options: ledger.Options{
			BudgetMode: ledger.BudgetMode(a.cfg.BudgetMode),
			Recompute:  ledger.RecomputeMode(a.cfg.Recompute),
		},
	}, a.logger)
	if err := svc.Open(ctx); err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "Tracking started",
		log.FieldOperation, log.OpStartup,
		log.FieldFile, target.Path,
		log.FieldTitle, target.Title,
		log.FieldBackend, bcfg.Type)
	return console.NewSession(svc, cmd.InOrStdin(), cmd.OutOrStdout(), a.logger).Run(ctx)
}
