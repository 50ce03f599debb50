package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/capture"
	"github.com/roach88/reveille/internal/clock"
	"github.com/roach88/reveille/internal/sound"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	For     time.Duration
	Preview bool

	// Capturer and Sink override the configured recorder and player (for testing).
	Capturer capture.Capturer
	Sink     sound.Sink
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <alarm-id>",
		Short: "Record a new sound clip for an alarm",
		Long: `Record a sound clip from the microphone and attach it to an alarm,
replacing any clip it had.

Recording stops when Enter is pressed, or after --for if given.

Example:
  reveille record 0190a4c2-...
  reveille record 0190a4c2-... --for 5s --preview`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return recordClip(opts, alarm.ID(args[0]), cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.For, "for", 0, "stop recording after this long instead of waiting for Enter")
	cmd.Flags().BoolVar(&opts.Preview, "preview", false, "play the recorded clip once when done")

	return cmd
}

func recordClip(opts *RecordOptions, id alarm.ID, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newFormatter(cmd, opts.RootOptions)

	a, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return out.Fail(err)
	}
	defer a.Close()

	capturer := opts.Capturer
	if capturer == nil {
		if capturer, err = a.capturer(); err != nil {
			return out.Fail(err)
		}
	}

	coord := capture.NewCoordinator(capturer, a.alarms, nil)
	start := func(ctx context.Context) error { return coord.StartForAlarm(ctx, id) }
	p, err := captureUntilStopped(ctx, start, coord, cmd.InOrStdin(), opts.For, out)
	if err != nil {
		return out.Fail(WrapAlarmError("recording failed", err))
	}
	if draft, ok := coord.Pending(); ok {
		// The alarm vanished while recording; a one-shot command has no next
		// create to hand the draft to.
		coord.Discard()
		out.VerboseLog("discarded %d byte draft", len(draft.Clip))
		return out.Fail(WrapAlarmError("recording discarded", alarm.NewNotFoundError(id)))
	}

	if opts.Preview {
		sink := opts.Sink
		if sink == nil {
			sink = a.sink()
		}
		resolver := sound.NewResolver(sink, clock.System{})
		out.VerboseLog("playing %d bytes", len(p.Clip))
		if err := resolver.Preview(ctx, p.Clip); err != nil {
			return out.Fail(WrapAlarmError("preview failed", err))
		}
	}

	updated, _ := a.alarms.Get(id)
	if out.Format == "json" {
		return out.Success(newAlarmView(updated))
	}
	return out.Success(fmt.Sprintf("Recorded %d bytes for alarm %s", len(p.Clip), id))
}

// captureUntilStopped starts a capture through start, waits for the user to
// finish and stops it. With limit > 0 the capture runs for limit; otherwise
// it runs until a line (or EOF) is read from in. A cancelled ctx cancels the
// capture.
func captureUntilStopped(
	ctx context.Context,
	start func(context.Context) error,
	coord *capture.Coordinator,
	in io.Reader,
	limit time.Duration,
	out *OutputFormatter,
) (capture.PendingRecording, error) {
	if err := start(ctx); err != nil {
		return capture.PendingRecording{}, err
	}

	what := "new clip"
	if target, ok := coord.Recording(); ok && target != "" {
		what = "alarm " + string(target)
	}
	if limit > 0 {
		fmt.Fprintf(out.GetErrWriter(), "Recording %s for %s...\n", what, limit)
	} else {
		fmt.Fprintf(out.GetErrWriter(), "Recording %s... press Enter to stop.\n", what)
	}

	if err := waitForStop(ctx, in, limit); err != nil {
		coord.Cancel()
		return capture.PendingRecording{}, err
	}
	return coord.Stop(ctx)
}

func waitForStop(ctx context.Context, in io.Reader, limit time.Duration) error {
	if limit > 0 {
		t := time.NewTimer(limit)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}

	line := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(in).ReadString('\n')
		close(line)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-line:
		return nil
	}
}
