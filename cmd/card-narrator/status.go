// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/card-narrator/internal/ledger"
	"github.com/pdiddy/card-narrator/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [document]",
	Short: "Show the latest recorded outcome of every audio file",
	Long: `Status reads the ledger written by narrate --ledger and lists the most
recent outcome of each artifact, ordered by document and section. An
optional argument restricts the list to documents whose name contains it.

Use --runs to list recent runs instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("ledger")
	if path == "" {
		path = viper.GetString("ledger")
	}
	if path == "" {
		return errors.New("no ledger configured: pass --ledger or set ledger in card-narrator.yaml")
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	runs, _ := cmd.Flags().GetInt("runs")

	l, err := ledger.Inspect(path)
	if err != nil {
		return err
	}
	defer l.Close()

	if runs > 0 {
		list, err := l.Runs(cmd.Context(), runs)
		if err != nil {
			return err
		}
		return formatRuns(os.Stdout, list, jsonOutput)
	}

	var filter string
	if len(args) == 1 {
		filter = args[0]
	}
	outcomes, err := l.Latest(cmd.Context(), filter)
	if err != nil {
		return err
	}
	return formatOutcomes(os.Stdout, outcomes, jsonOutput)
}

func formatOutcomes(w io.Writer, outcomes []types.Outcome, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	}

	if len(outcomes) == 0 {
		fmt.Fprintln(w, "No outcomes recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-30s  %-8s  %-8s  %-6s  %-20s  %s\n",
		"Document", "Section", "Status", "Chunks", "When", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, o := range outcomes {
		doc := o.Document
		if len(doc) > 30 {
			doc = doc[:27] + "..."
		}
		detail := o.Path
		if o.Error != "" {
			detail = o.Error
		}
		fmt.Fprintf(w, "%-30s  %-8s  %-8s  %-6d  %-20s  %s\n",
			doc, o.Label, o.Status, o.Chunks, o.At.Local().Format(time.DateTime), detail)
	}

	fmt.Fprintf(w, "\n%d artifacts\n", len(outcomes))
	return nil
}

func formatRuns(w io.Writer, runs []ledger.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-8s  %7s  %7s  %6s\n",
		"Run", "Started", "Engine", "Created", "Skipped", "Failed")
	fmt.Fprintln(w, strings.Repeat("-", 94))
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %-8s  %7d  %7d  %6d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Engine, r.Created, r.Skipped, r.Failed)
	}
	return nil
}

func init() {
	statusCmd.Flags().String("ledger", "", "ledger file (default: ledger from config)")
	statusCmd.Flags().Bool("json", false, "output as JSON")
	statusCmd.Flags().Int("runs", 0, "list the most recent N runs instead of artifacts")
	rootCmd.AddCommand(statusCmd)
}
