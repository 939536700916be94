package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"medtriage/models"
	"medtriage/sink"
)

const symptomsWidth = 60

var logsFlags struct {
	limit    int
	markdown bool
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List recent triage log records from the configured store",
	RunE:  runLogs,
}

func init() {
	f := logsCmd.Flags()
	f.IntVar(&logsFlags.limit, "limit", sink.DefaultRecentLimit, "Maximum number of records (capped at 500)")
	f.BoolVar(&logsFlags.markdown, "markdown", false, "Render as a Markdown table")
}

func runLogs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := sink.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.Recent(cmd.Context(), logsFlags.limit)
	if err != nil {
		return fmt.Errorf("list triage logs: %w", err)
	}
	renderLogs(cmd.OutOrStdout(), recs, logsFlags.markdown)
	return nil
}

func renderLogs(w io.Writer, recs []models.TriageLogRecord, markdown bool) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No triage logs recorded.")
		return
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Created", "ID", "Channel", "Lang", "ESI", "Panic", "Symptoms"})
	for _, r := range recs {
		esi := "-"
		if r.ESILevel != nil {
			esi = strconv.Itoa(*r.ESILevel)
		}
		t.AppendRow(table.Row{
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ID,
			r.Channel,
			r.Language,
			esi,
			r.Panic,
			r.Symptoms,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 7, WidthMax: symptomsWidth},
	})
	if markdown {
		fmt.Fprintln(w, t.RenderMarkdown())
		return
	}
	fmt.Fprintln(w, t.Render())
}
