package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/reveille/internal/alarm"
	"github.com/roach88/reveille/internal/sound"
)

// AlarmView is the JSON form of an alarm.
type AlarmView struct {
	ID              alarm.ID   `json:"id"`
	Label           string     `json:"label"`
	Time            string     `json:"time"`
	DurationSeconds int        `json:"duration_seconds"`
	Sound           sound.Kind `json:"sound"`
	ClipBytes       int        `json:"clip_bytes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func newAlarmView(a alarm.Alarm) AlarmView {
	kind := sound.KindTone
	if a.HasClip() {
		kind = sound.KindClip
	}
	return AlarmView{
		ID:              a.ID,
		Label:           a.Label,
		Time:            a.Time.String(),
		DurationSeconds: int(a.Duration / time.Second),
		Sound:           kind,
		ClipBytes:       len(a.SoundClip),
		CreatedAt:       a.CreatedAt,
	}
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Alarms []AlarmView `json:"alarms"`
	Total  int         `json:"total"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alarms in creation order",
		Example: `  reveille list
  reveille list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listAlarms(rootOpts, cmd)
		},
	}
	return cmd
}

func listAlarms(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts)

	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return out.Fail(err)
	}
	defer a.Close()

	alarms := a.alarms.List()
	result := ListResult{Alarms: make([]AlarmView, 0, len(alarms)), Total: len(alarms)}
	for _, al := range alarms {
		result.Alarms = append(result.Alarms, newAlarmView(al))
	}

	if out.Format == "json" {
		return out.Success(result)
	}
	return writeAlarmTable(out.Writer, result.Alarms)
}

func writeAlarmTable(w io.Writer, alarms []AlarmView) error {
	if len(alarms) == 0 {
		_, err := fmt.Fprintln(w, "No alarms.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tRINGS FOR\tSOUND\tLABEL")
	for _, v := range alarms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Time, time.Duration(v.DurationSeconds)*time.Second, v.Sound, v.Label)
	}
	return tw.Flush()
}
