package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"planner/internal/calendar"
	"planner/internal/holiday"
)

func weeksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weeks [YYYY-MM]",
		Short: "Print the weeks a month owns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			year, month := now.Year(), now.Month()
			if len(args) == 1 {
				var err error
				year, month, err = calendar.ParseMonthKey(args[0])
				if err != nil {
					return err
				}
			}
			return printWeeks(cmd.OutOrStdout(), year, month)
		},
	}
}

func printWeeks(out io.Writer, year int, month time.Month) error {
	fmt.Fprintf(out, "%s %d\n", calendar.MonthName(month), year)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tFROM\tTO\tLABEL")
	for _, w := range calendar.WeeksOfMonth(year, month) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.Key(), calendar.ToISODate(w.Start), calendar.ToISODate(w.End), w.Label)
	}
	return tw.Flush()
}

func holidaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "holidays [year]",
		Short: "List the holidays of a year",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year := time.Now().Year()
			if len(args) == 1 {
				y, err := strconv.Atoi(args[0])
				if err != nil || y < 1 {
					return fmt.Errorf("year must be a positive number, got %q", args[0])
				}
				year = y
			}
			return printHolidays(cmd.OutOrStdout(), holiday.Brazil{}, year)
		},
	}
}

func printHolidays(out io.Writer, p holiday.Provider, year int) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tNAME\tTYPE")
	for _, h := range p.ForYear(year) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", h.Date, h.Name, h.Kind)
	}
	return tw.Flush()
}
