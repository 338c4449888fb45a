package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/nishad/encode-audit/internal/history"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded report runs",
	Long: `Inspect report runs recorded with --history (or history.enabled in the
configuration). Each run stores its filters and the audit tally of every
cell that needed a refinement search.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the cells of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyLimit int

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum runs to list")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func openHistory() (*history.Store, error) {
	path := historyPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.History.Path
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no history at %s, run a report with --history first", path)
	}
	return history.Open(path)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tSTATUS\tROWS\tREQUESTS\tFILTERS\tOUTFILE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			statusLabel(r.Status),
			r.Rows,
			r.Fetches,
			formatFilters(r.Filters),
			r.Outfile)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(args[0])
	if err != nil {
		return err
	}
	cells, err := store.Cells(run.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", colorize(colorBold, "Run:"), run.ID)
	fmt.Printf("%s %s\n", colorize(colorBold, "Started:"), run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("%s %s\n", colorize(colorBold, "Status:"), statusLabel(run.Status))
	if run.Error != "" {
		fmt.Printf("%s %s\n", colorize(colorBold, "Error:"), run.Error)
	}
	fmt.Printf("%s %s\n", colorize(colorBold, "Filters:"), formatFilters(run.Filters))
	fmt.Printf("%s %s\n", colorize(colorBold, "Matrix:"), run.MatrixURL)
	fmt.Println()

	if len(cells) == 0 {
		printInfo("No cells recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "TYPE\tBIOSAMPLE\tCOLUMN\tTOTAL\tERROR\tNOT COMPLIANT"
	if run.AllAudits {
		header += "\tWARNING\tDCC ACTION"
	}
	fmt.Fprintln(w, header)
	for _, c := range cells {
		line := fmt.Sprintf("%s\t%s\t%s\t%d\t%d\t%d", c.BiosampleType, c.BiosampleName, c.Column, c.Total, c.Error, c.NotCompliant)
		if run.AllAudits {
			line += fmt.Sprintf("\t%d\t%d", c.Warning, c.DCCAction)
		}
		fmt.Fprintln(w, line)
	}
	return w.Flush()
}

func statusLabel(status string) string {
	switch status {
	case history.StatusCompleted:
		return colorize(colorGreen, status)
	case history.StatusFailed:
		return colorize(colorRed, status)
	default:
		return colorize(colorYellow, status)
	}
}

func formatFilters(filters map[string][]string) string {
	if len(filters) == 0 {
		return "-"
	}
	var parts []string
	for _, name := range []string{"rfa", "species", "status", "lab"} {
		if values, ok := filters[name]; ok {
			parts = append(parts, name+"="+strings.Join(values, ";"))
		}
	}
	return strings.Join(parts, " ")
}
