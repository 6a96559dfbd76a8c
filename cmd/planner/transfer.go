package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"planner/internal/config"
)

func exportCmd(configPath *string) *cobra.Command {
	var (
		years  []int
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write tasks and holidays as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			now := a.now()
			if len(years) == 0 {
				years = []int{now.Year()}
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			return a.exporter.Export(cmd.Context(), out, years, now)
		},
	}

	cmd.Flags().IntSliceVar(&years, "years", nil, "holiday years to include (default current year)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func importCmd(configPath *string) *cobra.Command {
	var backup bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import groups and tasks from a legacy JSON store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.importer.ImportFile(cmd.Context(), args[0], backup)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "groups: %d added, %d skipped\ntasks: %d added, %d skipped\n",
				result.GroupsAdded, result.GroupsSkipped, result.TasksAdded, result.TasksSkipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&backup, "backup", false, "rename the file to <file>.backup after a successful import")
	return cmd
}

func configCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return cmd
}
