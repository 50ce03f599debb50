package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reveille/internal/alarm"
)

// DeleteResult is the JSON payload of the delete command.
type DeleteResult struct {
	ID      alarm.ID `json:"id"`
	Existed bool     `json:"existed"`
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <alarm-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete alarms",
		Long: `Delete one or more alarms. Deleting an id that does not exist is not
an error.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteAlarms(rootOpts, args, cmd)
		},
	}
}

func deleteAlarms(opts *RootOptions, ids []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := newFormatter(cmd, opts)

	a, err := openApp(ctx, opts)
	if err != nil {
		return out.Fail(err)
	}
	defer a.Close()

	results := make([]DeleteResult, 0, len(ids))
	for _, raw := range ids {
		id := alarm.ID(raw)
		_, existed := a.alarms.Get(id)
		if err := a.alarms.Delete(ctx, id); err != nil {
			return out.Fail(WrapAlarmError("failed to delete alarm", err))
		}
		if !existed {
			out.VerboseLog("alarm %s not found, nothing to delete", id)
		}
		results = append(results, DeleteResult{ID: id, Existed: existed})
	}

	if out.Format == "json" {
		return out.Success(results)
	}
	for _, r := range results {
		if r.Existed {
			fmt.Fprintf(out.Writer, "Deleted alarm %s\n", r.ID)
		} else {
			fmt.Fprintf(out.Writer, "No alarm %s\n", r.ID)
		}
	}
	return nil
}
