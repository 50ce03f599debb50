package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/capture"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Label     string
	Time      string
	Duration  time.Duration
	ClipFile  string
	Record    bool
	RecordFor time.Duration

	// Capturer overrides the configured recorder (for testing).
	Capturer capture.Capturer
	// IDs overrides the UUIDv7 id generator (for testing).
	IDs alarm.IDGenerator
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an alarm",
		Long: `Create a daily alarm at --time (HH:MM, 24-hour).

A blank label becomes "Alarm" and a missing duration rings for 30s. The
alarm rings a recorded clip if one is attached with --clip or --record,
and a synthesized tone otherwise.

Example:
  reveille add --time 07:00 --label "Wake up"
  reveille add --time 18:30 --duration 1m --clip gym.wav
  reveille add --time 06:45 --record --record-for 5s`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return addAlarm(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Time, "time", "", "time of day, HH:MM (required)")
	cmd.Flags().StringVar(&opts.Label, "label", "", "alarm label")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "how long the alarm rings before stopping (default 30s)")
	cmd.Flags().StringVar(&opts.ClipFile, "clip", "", "audio file to ring instead of the tone")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record the clip from the microphone first")
	cmd.Flags().DurationVar(&opts.RecordFor, "record-for", 0, "with --record, stop after this long instead of waiting for Enter")
	_ = cmd.MarkFlagRequired("time")
	cmd.MarkFlagsMutuallyExclusive("clip", "record")

	return cmd
}

func addAlarm(opts *AddOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newFormatter(cmd, opts.RootOptions)

	if opts.Duration < 0 {
		return out.Fail(WrapAlarmError("invalid duration",
			alarm.NewValidationError("duration must be positive, got %s", opts.Duration)))
	}
	// Reject a bad time before recording anything.
	if _, err := alarm.ParseTimeOfDay(opts.Time); err != nil {
		return out.Fail(WrapAlarmError("invalid time", err))
	}

	var storeOpts []alarm.StoreOption
	if opts.IDs != nil {
		storeOpts = append(storeOpts, alarm.WithIDGenerator(opts.IDs))
	}
	a, err := openApp(ctx, opts.RootOptions, storeOpts...)
	if err != nil {
		return out.Fail(err)
	}
	defer a.Close()

	var clip []byte
	switch {
	case opts.ClipFile != "":
		if clip, err = os.ReadFile(opts.ClipFile); err != nil {
			return out.Fail(WrapExitError(ExitCommandError, "failed to read clip", err))
		}
	case opts.Record:
		capturer := opts.Capturer
		if capturer == nil {
			if capturer, err = a.capturer(); err != nil {
				return out.Fail(err)
			}
		}
		coord := capture.NewCoordinator(capturer, a.alarms, nil)
		if _, err := captureUntilStopped(ctx, coord.StartDraft, coord, cmd.InOrStdin(), opts.RecordFor, out); err != nil {
			return out.Fail(WrapAlarmError("recording failed", err))
		}
		clip = coord.TakeDraft()
	}

	created, err := a.alarms.Create(ctx, alarm.NewAlarm{
		Label:     opts.Label,
		Time:      opts.Time,
		Duration:  opts.Duration,
		SoundClip: clip,
	})
	if err != nil {
		return out.Fail(WrapAlarmError("failed to create alarm", err))
	}

	if out.Format == "json" {
		return out.Success(newAlarmView(created))
	}
	return out.Success(fmt.Sprintf("Created alarm %s at %s (%s)", created.ID, created.Time, created.Label))
}
