package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/clock"
	"github.com/roach88/reveille/internal/engine"
	"github.com/roach88/reveille/internal/metrics"
	"github.com/roach88/reveille/internal/sound"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Clock and Sink override the system clock and the configured player
	// (for testing).
	Clock clock.Clock
	Sink  sound.Sink
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the clock and ring alarms",
		Long: `Start the alarm engine. It compares the clock against the alarm list
every tick and rings an alarm when its time of day comes up.

While an alarm rings, type "d" and Enter to dismiss it or "s" and Enter
to snooze it. Alarms added or edited by other commands are picked up
when the database changes; SIGHUP forces a reload.

Example:
  reveille run
  reveille run --db /tmp/alarms.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := newFormatter(cmd, opts.RootOptions)
	logger := slog.Default()

	a, err := openApp(ctx, opts.RootOptions, alarm.WithLogger(logger))
	if err != nil {
		return out.Fail(err)
	}
	defer a.Close()

	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	sink := opts.Sink
	if sink == nil {
		sink = a.sink()
	}

	resolver := sound.NewResolver(sink, clk,
		sound.WithTone(a.cfg.Tone),
		sound.WithClipGap(a.cfg.ClipGap),
		sound.WithLogger(logger),
	)
	m := metrics.New(func() int { return len(a.alarms.List()) })
	eng := engine.New(a.alarms, resolver, clk,
		engine.WithDisplay(newTerminalDisplay(out.Writer, out.Format == "json")),
		engine.WithMetrics(m),
		engine.WithLogger(logger),
		engine.WithSnoozeInterval(a.cfg.Snooze),
	)

	if a.cfg.MetricsAddr != "" {
		srv := serveMetrics(a.cfg.MetricsAddr, m)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if a.cfg.Database != ":memory:" {
		if err := watchDatabase(ctx, a.cfg.Database, a.alarms, watchQuiet); err != nil {
			logger.Warn("not watching database, send SIGHUP to reload", "error", err)
		}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnHangup(ctx, hup, a.alarms)

	go readCommands(cmd.InOrStdin(), eng, out.GetErrWriter())

	logger.Info("engine starting", "db", a.cfg.Database, "alarms", len(a.alarms.List()), "tick", a.cfg.TickInterval)
	if out.Format != "json" {
		fmt.Fprintf(out.Writer, "Watching %d alarm(s). d+Enter dismisses, s+Enter snoozes, Ctrl-C quits.\n", len(a.alarms.List()))
	}

	ticks := clock.NewTicker(clk, a.cfg.TickInterval).Run(ctx)
	if err := eng.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return out.Fail(WrapExitError(ExitFailure, "engine error", err))
	}

	logger.Info("engine stopped gracefully")
	return nil
}

// readCommands submits dismiss and snooze commands typed on in. It returns
// at EOF; the engine keeps running without input.
func readCommands(in io.Reader, eng *engine.Engine, errOut io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		var c engine.Command
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "":
			continue
		case "d", "dismiss":
			c.Type = engine.CommandDismiss
		case "s", "snooze":
			c.Type = engine.CommandSnooze
		default:
			fmt.Fprintf(errOut, "unknown command %q (d = dismiss, s = snooze)\n", scanner.Text())
			continue
		}
		if !eng.Submit(c) {
			return
		}
	}
}

// reloadOnHangup refreshes the alarm collection from the database on every
// signal received on hup until ctx is done.
func reloadOnHangup(ctx context.Context, hup <-chan os.Signal, alarms *alarm.Store) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := alarms.Refresh(ctx); err != nil {
				slog.Error("reload failed", "error", err)
				continue
			}
			slog.Info("alarms reloaded", "count", len(alarms.List()))
		}
	}
}

func serveMetrics(addr string, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	return srv
}
