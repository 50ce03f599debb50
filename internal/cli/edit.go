package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/reveille/internal/alarm"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	ClipFile  string
	ClearClip bool
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <alarm-id>",
		Short: "Change an alarm's label, time, duration or clip",
		Long: `Change fields of an existing alarm. Only the flags given are changed.

Example:
  reveille edit 0190a4c2-... --time 07:15
  reveille edit 0190a4c2-... --label "" --clear-clip`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editAlarm(opts, alarm.ID(args[0]), cmd)
		},
	}

	cmd.Flags().String("label", "", "new label (blank resets to \"Alarm\")")
	cmd.Flags().String("time", "", "new time of day, HH:MM")
	cmd.Flags().Duration("duration", 0, "new ring duration")
	cmd.Flags().StringVar(&opts.ClipFile, "clip", "", "audio file to attach")
	cmd.Flags().BoolVar(&opts.ClearClip, "clear-clip", false, "remove the clip and ring the tone")
	cmd.MarkFlagsMutuallyExclusive("clip", "clear-clip")

	return cmd
}

// patchFromFlags builds a Patch from the flags that were set.
func patchFromFlags(opts *EditOptions, cmd *cobra.Command) (alarm.Patch, error) {
	var p alarm.Patch
	flags := cmd.Flags()

	if flags.Changed("label") {
		label, _ := flags.GetString("label")
		p.Label = &label
	}
	if flags.Changed("time") {
		raw, _ := flags.GetString("time")
		t, err := alarm.ParseTimeOfDay(raw)
		if err != nil {
			return p, err
		}
		p.Time = &t
	}
	if flags.Changed("duration") {
		d, _ := flags.GetDuration("duration")
		if d <= 0 {
			return p, alarm.NewValidationError("duration must be positive, got %s", d)
		}
		p.Duration = &d
	}

	switch {
	case opts.ClipFile != "":
		clip, err := os.ReadFile(opts.ClipFile)
		if err != nil {
			return p, err
		}
		p.SoundClip = clip
	case opts.ClearClip:
		p.SoundClip = []byte{}
	}

	if p.Label == nil && p.Time == nil && p.Duration == nil && p.SoundClip == nil {
		return p, alarm.NewValidationError("nothing to change")
	}
	return p, nil
}

func editAlarm(opts *EditOptions, id alarm.ID, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newFormatter(cmd, opts.RootOptions)

	p, err := patchFromFlags(opts, cmd)
	if err != nil {
		if alarm.CodeOf(err) == "" {
			return out.Fail(WrapExitError(ExitCommandError, "failed to read clip", err))
		}
		return out.Fail(WrapAlarmError("invalid edit", err))
	}

	a, err := openApp(ctx, opts.RootOptions)
	if err != nil {
		return out.Fail(err)
	}
	defer a.Close()

	updated, err := a.alarms.Update(ctx, id, p)
	if err != nil {
		return out.Fail(WrapAlarmError("failed to update alarm", err))
	}

	if out.Format == "json" {
		return out.Success(newAlarmView(updated))
	}
	return out.Success(fmt.Sprintf("Updated alarm %s: %s (%s)", updated.ID, updated.Time, updated.Label))
}
