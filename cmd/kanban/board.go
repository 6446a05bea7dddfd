package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baiirun/kanban/internal/config"
	"github.com/baiirun/kanban/internal/model"
	"github.com/baiirun/kanban/internal/tui"
)

func newInitCmd(a *app) *cobra.Command {
	var writeConfig bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the board database and apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := a.db.SchemaVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Board ready (schema version %d)\n", version)

			if writeConfig {
				if err := config.WriteDefault(config.LocalConfigPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", config.LocalConfigPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "also write a default "+config.LocalConfigPath)
	return cmd
}

// StatusJSON is the per-state item count.
type StatusJSON struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show work item counts per state",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := a.board.WorkItems.CountByState()
			if err != nil {
				return err
			}

			total := 0
			out := StatusJSON{Counts: make(map[string]int, len(counts))}
			for _, s := range model.States {
				out.Counts[string(s)] = counts[s]
				total += counts[s]
			}
			out.Total = total

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for _, s := range model.States {
				fmt.Fprintf(cmd.OutOrStdout(), "%-9s %d\n", s, counts[s])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-9s %d\n", "Total", total)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newBoardCmd(a *app) *cobra.Command {
	var showRemoved bool
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive kanban board",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("removed") {
				showRemoved = a.cfg.Board.ShowRemoved
			}
			return tui.Run(a.board, showRemoved)
		},
	}
	cmd.Flags().BoolVar(&showRemoved, "removed", false, "show the Removed column")
	return cmd
}
