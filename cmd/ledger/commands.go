package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/prop-ledger/cmd/common"
	"github.com/ducminhle1904/prop-ledger/internal/config"
	"github.com/ducminhle1904/prop-ledger/internal/ledger"
	ledgererrors "github.com/ducminhle1904/prop-ledger/internal/errors"
	"github.com/ducminhle1904/prop-ledger/internal/monitoring"
	"github.com/ducminhle1904/prop-ledger/internal/trading"
	"github.com/ducminhle1904/prop-ledger/pkg/reporting"
)

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Prop Ledger - prop-firm challenge trade journal",
		Long: `Prop Ledger tracks a prop-firm challenge account: equity curve, open and
closed positions, and the daily loss and losing streak limits of your risk plan.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	a.flags = common.RegisterCommonFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newTakeCmd(a))
	rootCmd.AddCommand(newOpenCmd(a))
	rootCmd.AddCommand(newCloseCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newExportCmd(a))
	rootCmd.AddCommand(newBackupCmd(a))
	rootCmd.AddCommand(newRestoreCmd(a))
	rootCmd.AddCommand(newAccountsCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	return rootCmd
}

// run executes one command line and releases the account log afterwards
func run(a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.Execute()
	a.close()
	if err != nil {
		a.reportError(err)
	}
	return err
}

func (a *app) reportError(err error) {
	if ledgererrors.IsRiskLimit(err) {
		fmt.Fprintln(a.errOut, renderRiskBlock(err.Error()))
		return
	}
	a.console.Error("%v", err)
}

func newInitCmd(a *app) *cobra.Command {
	var (
		profilePath string
		interactive bool
		equity      float64
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the account ledger from a profile",
		Long: `Create the account's trading state. The starting equity and risk per trade
come from the onboarding profile (a JSON file or interactive questions);
anything unanswered falls back to DEFAULT_* environment settings. An existing
ledger is left untouched and shown instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.account()
			if err != nil {
				return err
			}

			if err := common.NewFlagValidator().ValidateFile("profile", profilePath, false).GetError(); err != nil {
				return err
			}

			var profile config.AccountProfile
			switch {
			case profilePath != "":
				if profile, err = config.LoadProfile(profilePath); err != nil {
					return err
				}
			case interactive:
				if profile, err = askProfile(); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("equity") {
				if err := common.NewFlagValidator().ValidateFloat("equity", equity, 0.01, 1e12).GetError(); err != nil {
					return err
				}
				profile.HasAccount = true
				profile.AccountEquity = equity
			}

			existed := a.store.Exists(account)
			l, err := a.ledgerFor(account)
			if err != nil {
				return err
			}
			state, err := l.Initialize(account, profile)
			if err != nil {
				return err
			}

			if existed {
				a.console.Info("Ledger for %s already exists", account)
			} else {
				a.console.Success("Ledger created for %s", account)
			}
			fmt.Fprintln(a.out, renderHeader("Prop Ledger", account))
			a.reporter().OutputSummary(account, state)
			return nil
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "Onboarding profile JSON file")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Answer the onboarding questions in the terminal")
	cmd.Flags().Float64Var(&equity, "equity", 0, "Current account equity (overrides the profile)")
	return cmd
}

// signalFlags are shared by take and open
type signalFlags struct {
	id         string
	instrument string
	direction  string
	entry      float64
	stop       float64
	target     float64
}

func (f *signalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "signal-id", "", "Signal id (generated when empty)")
	cmd.Flags().StringVarP(&f.instrument, "instrument", "s", "", "Instrument, e.g. EURUSD")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "long", "long or short")
	cmd.Flags().Float64Var(&f.entry, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&f.stop, "stop", 0, "Stop loss price")
	cmd.Flags().Float64Var(&f.target, "target", 0, "Take profit price")
	cmd.MarkFlagRequired("instrument")
}

func (f *signalFlags) signal(now time.Time) (trading.Signal, error) {
	v := common.NewFlagValidator().
		ValidateRequired("instrument", f.instrument).
		ValidateChoice("direction", f.direction, []string{string(trading.DirectionLong), string(trading.DirectionShort)}).
		ValidateFinite("entry", f.entry).
		ValidateFinite("stop", f.stop).
		ValidateFinite("target", f.target)
	if err := v.GetError(); err != nil {
		return trading.Signal{}, err
	}

	id := f.id
	if id == "" {
		id = fmt.Sprintf("manual-%s", now.Format("20060102-150405"))
	}
	return trading.Signal{
		ID:         id,
		Instrument: strings.ToUpper(strings.TrimSpace(f.instrument)),
		Direction:  trading.Direction(f.direction),
		Entry:      f.entry,
		StopLoss:   f.stop,
		TakeProfit: f.target,
		CreatedAt:  now,
	}, nil
}

// outcomeFlags are shared by take and close
type outcomeFlags struct {
	outcome string
	pnl     float64
}

func (f *outcomeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.outcome, "outcome", "o", "", "win, loss or breakeven")
	cmd.Flags().Float64VarP(&f.pnl, "pnl", "p", 0, "Realized pnl in account currency (0 when omitted)")
	cmd.MarkFlagRequired("outcome")
}

func (f *outcomeFlags) parse(cmd *cobra.Command) (trading.Outcome, *float64, error) {
	v := common.NewFlagValidator()
	outcome, err := trading.ParseOutcome(strings.ToLower(strings.TrimSpace(f.outcome)))
	if err != nil {
		v.AddError(err.Error())
	}
	if err := v.ValidateFinite("pnl", f.pnl).GetError(); err != nil {
		return "", nil, err
	}

	var pnl *float64
	if cmd.Flags().Changed("pnl") {
		p := f.pnl
		pnl = &p
	}
	return outcome, pnl, nil
}

func newTakeCmd(a *app) *cobra.Command {
	var sig signalFlags
	var out outcomeFlags

	cmd := &cobra.Command{
		Use:   "take",
		Short: "Record a signal you took and its outcome",
		Long: `Record a trade that was taken on a signal and already settled. The risk plan
is checked first; when a limit is reached nothing is recorded.`,
		Example: `  ledger take -a trader@example.com -s EURUSD -d long --entry 1.085 --stop 1.082 --target 1.091 -o win -p 450`,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.account()
			if err != nil {
				return err
			}
			tradeSignal, err := sig.signal(a.now())
			if err != nil {
				return err
			}
			outcome, pnl, err := out.parse(cmd)
			if err != nil {
				return err
			}

			l, err := a.ledgerFor(account)
			if err != nil {
				return err
			}
			state, err := l.RecordOutcome(account, tradeSignal, outcome, pnl)
			if err != nil {
				return err
			}

			trade := state.Trades[len(state.Trades)-1]
			a.console.Success("%s %s %s recorded: %s, equity %s",
				strings.ToUpper(string(trade.Outcome)), tradeSignal.Instrument, strings.ToUpper(string(tradeSignal.Direction)),
				common.FormatCurrency(trade.PnL), common.FormatCurrency(state.CurrentEquity))
			return a.warnIfBlocked(l, account)
		},
	}

	sig.register(cmd)
	out.register(cmd)
	return cmd
}

func newOpenCmd(a *app) *cobra.Command {
	var sig signalFlags

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a position that you will close later",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.account()
			if err != nil {
				return err
			}
			tradeSignal, err := sig.signal(a.now())
			if err != nil {
				return err
			}

			l, err := a.ledgerFor(account)
			if err != nil {
				return err
			}
			state, pos, err := l.OpenPosition(account, tradeSignal)
			if err != nil {
				return err
			}

			a.console.Success("Opened %s %s as position %s (%d open)",
				tradeSignal.Instrument, strings.ToUpper(string(tradeSignal.Direction)), pos.ID, len(state.OpenPositions))
			return nil
		},
	}

	sig.register(cmd)
	return cmd
}

func newCloseCmd(a *app) *cobra.Command {
	var out outcomeFlags

	cmd := &cobra.Command{
		Use:   "close POSITION_ID",
		Short: "Close an open position with its outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.account()
			if err != nil {
				return err
			}
			outcome, pnl, err := out.parse(cmd)
			if err != nil {
				return err
			}

			l, err := a.ledgerFor(account)
			if err != nil {
				return err
			}
			state, err := l.ClosePosition(account, args[0], outcome, pnl)
			if err != nil {
				return err
			}

			trade := state.Trades[len(state.Trades)-1]
			a.console.Success("Closed %s as %s: %s, equity %s",
				trade.ID, strings.ToUpper(string(trade.Outcome)),
				common.FormatCurrency(trade.PnL), common.FormatCurrency(state.CurrentEquity))
			return a.warnIfBlocked(l, account)
		},
	}

	out.register(cmd)
	return cmd
}

// warnIfBlocked tells the user right away when the last trade tripped a limit
func (a *app) warnIfBlocked(l *ledger.Ledger, account string) error {
	violations, err := l.Violations(account)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		descriptions := make([]string, 0, len(violations))
		for _, v := range violations {
			descriptions = append(descriptions, v.Description)
		}
		fmt.Fprintln(a.out, renderRiskBlock(strings.Join(descriptions, "\n")))
	}
	return nil
}

func newStatusCmd(a *app) *cobra.Command {
	var trades int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show equity, metrics, open positions and risk limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.account()
			if err != nil {
				return err
			}
			l, err := a.ledgerFor(account)
			if err != nil {
				return err
			}
			state, err := l.State(account)
			if err != nil {
				return err
			}
			violations, err := l.Violations(account)
			if err != nil {
				return err
			}

			r := a.reporter()
			fmt.Fprintln(a.out, renderHeader("Prop Ledger", account))
			r.OutputSummary(account, state)
			r.OutputOpenPositions(state)
			r.OutputTrades(state, trades)
			r.OutputViolations(violations)
			return nil
		},
	}

	cmd.Flags().IntVarP(&trades, "trades", "n", 10, "Number of recent trades to show (0 for all)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		outPath string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the trade journal as CSV, Excel or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := common.NewFlagValidator().ValidateChoice("format", format, []string{"csv", "xlsx", "json"}).GetError(); err != nil {
				return err
			}
			account, err := a.account()
			if err != nil {
				return err
			}
			l, err := a.ledgerFor(account)
			if err != nil {
				return err
			}
			state, err := l.State(account)
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = reporting.DefaultExportPath(account, format, a.now())
			}
			if err := a.reporter().Export(state, outPath); err != nil {
				return err
			}
			a.console.Success("Exported %d trades to %s", len(state.Trades), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Output file (default results/<account>/journal_<time>.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "csv, xlsx or json (ignored when --out has an extension)")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), "."); ext != "" {
			format = ext
		}
	}
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the account's state file to a timestamped backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.account()
			if err != nil {
				return err
			}
			path, err := a.store.Backup(account)
			if err != nil {
				return err
			}
			a.console.Success("Backup written to %s", path)
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore BACKUP_FILE",
		Short: "Replace the account's state with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.account()
			if err != nil {
				return err
			}
			state, err := a.store.Restore(account, args[0])
			if err != nil {
				return err
			}
			a.console.Success("Restored %s: %d trades, equity %s",
				account, len(state.Trades), common.FormatCurrency(state.CurrentEquity))
			return nil
		},
	}
}

func newAccountsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts with a ledger in the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := a.store.List()
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				a.console.Info("No ledgers in %s", a.cfg.Storage.DataDir)
				return nil
			}
			for _, account := range accounts {
				fmt.Fprintln(a.out, account)
			}
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var (
		port    int
		refresh time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Prometheus metrics and a health check",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Monitoring.MetricsPort
			}
			if err := common.NewFlagValidator().ValidateFloat("port", float64(port), 1, 65535).GetError(); err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", monitoring.NewMetricsHandler())
			mux.Handle("/healthz", a.health)
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go a.publishAccounts(ctx, refresh)

			errCh := make(chan error, 1)
			go func() {
				a.console.Info("Serving /metrics and /healthz on %s", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a.console.Info("Shutting down metrics server")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default METRICS_PORT)")
	cmd.Flags().DurationVar(&refresh, "refresh", time.Minute, "How often account gauges are reloaded from disk")
	return cmd
}

// publishAccounts keeps the per-account gauges in line with the files on disk
func (a *app) publishAccounts(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		a.refreshAccounts()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *app) refreshAccounts() {
	accounts, err := a.store.List()
	if err != nil {
		a.health.SetStoreStatus(false)
		a.health.RecordError(err)
		return
	}
	a.health.SetStoreStatus(true)
	a.health.ClearErrors()

	for _, account := range accounts {
		state, err := a.store.Load(account)
		if err != nil {
			monitoring.RecordError(string(ledgererrors.CategoryOf(err)))
			a.health.RecordError(err)
			a.console.Warn("Skipping %s: %v", account, err)
			continue
		}
		rolled := trading.RollDailyStats(*state, a.now(), a.cfg.Location())
		monitoring.UpdateAccount(account, rolled.CurrentEquity, rolled.DailyStats.PnL, len(rolled.OpenPositions))
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			common.PrintVersion(a.out, "ledger")
		},
	}
}
