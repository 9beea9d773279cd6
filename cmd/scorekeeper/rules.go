package main

import (
	"fmt"
	"text/tabwriter"

	"ScoreTable/internal/rules"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rule presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPERIODS\tSHOT CLOCK\tBONUS\tTIMEOUTS\tOVERTIME")
			for _, r := range rules.Catalog() {
				overtime := "-"
				if r.OvertimeLength > 0 {
					overtime = rules.FormatClock(r.OvertimeLength)
				}
				fmt.Fprintf(tw, "%s\t%d x %s\t%d/%d\t%d\t%d\t%s\n",
					r.Name, r.PeriodCount, rules.FormatClock(r.PeriodLength),
					r.ShotClock, r.ShotClockReset, r.BonusFouls, r.MaxTimeoutsPerHalf, overtime)
			}
			return tw.Flush()
		},
	}
}
