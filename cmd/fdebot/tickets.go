package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/nixo/fdebot/internal/config"
	"github.com/nixo/fdebot/internal/models"
	"github.com/nixo/fdebot/internal/store"
	"github.com/spf13/cobra"
)

func newTicketsCmd() *cobra.Command {
	var configPath string
	var status string

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List tickets from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTickets(cmd, configPath, status)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "fdebot.yaml", "path to fdebot config file")
	cmd.Flags().StringVarP(&status, "status", "s", "", "filter by status (OPEN, RESOLVED)")
	return cmd
}

func runTickets(cmd *cobra.Command, configPath, status string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	st := store.New(gormDB)

	var tickets []models.Ticket
	if status != "" {
		tickets, err = st.TicketsByStatus(status)
	} else {
		tickets, err = st.Tickets()
	}
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		fmt.Fprintln(out, "No tickets.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tSTATUS\tUPDATED\tTITLE")
	for _, t := range tickets {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.Category, t.Status,
			t.UpdatedAt.Format("2006-01-02 15:04"), t.Title)
	}
	return w.Flush()
}
