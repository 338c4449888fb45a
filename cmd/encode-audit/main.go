package main

import (
	"fmt"
	"os"

	"github.com/nishad/encode-audit/internal/cli"
	"github.com/nishad/encode-audit/internal/errors"
	"github.com/spf13/cobra"
)

// Version info
var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// Global flags
var (
	configPath string
	noColor    bool
	quiet      bool
	debug      bool
)

// Root command runs the report
var rootCmd = &cobra.Command{
	Use:   "encode-audit",
	Short: "Count ENCODE audits per assay and biosample",
	Long: `encode-audit uses the ENCODE experiment matrix
(https://www.encodeproject.org/matrix/?type=Experiment) to total the ERROR and
NOT COMPLIANT audits for every biosample and assay, and writes a tab separated
report. Opened in a spreadsheet, each cell with results links to the search
page that produced it.

All filter values are semicolon separated lists and need to be quote enclosed:
  --rfa       refines the matrix by award.project, e.g. "ENCODE;Roadmap"
  --species   refines by organism name, e.g. "celegans;human;mouse"
  --status    refines by status, e.g. "released;submitted"
  --lab       refines by lab title, e.g. "Bing Ren, UCSD;J. Michael Cherry, Stanford"

The default columns are Short RNA-seq, Long RNA-seq, microRNA profiling by
array assay, microRNA-seq, DNase-seq, whole-genome shotgun bisulfite
sequencing, RAMPAGE and CAGE. Use --all for every assay in the matrix, and
--allaudits to also count WARNING and DCC ACTION audits.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Example: `  # Released human experiments from ENCODE and Roadmap
  encode-audit --rfa "ENCODE;Roadmap" --species human --status released

  # Every assay, every audit category, custom output
  encode-audit --all --allaudits --outfile audits.tsv

  # Record the run in the local history
  encode-audit --history`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReport,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Print debug messages")

	// Report flags - Filters
	rootCmd.Flags().StringVar(&reportRFA, "rfa", "", "Refine the matrix by award.project, e.g. \"ENCODE;Roadmap\"")
	rootCmd.Flags().StringVar(&reportSpecies, "species", "", "Refine by organism name, e.g. \"celegans;human;mouse\"")
	rootCmd.Flags().StringVar(&reportStatus, "status", "", "Refine by status, e.g. \"released;submitted\"")
	rootCmd.Flags().StringVar(&reportLab, "lab", "", "Refine by lab title, e.g. \"Bing Ren, UCSD\"")

	// Report flags - Output control
	rootCmd.Flags().BoolVar(&reportAll, "all", false, "Use every assay in the matrix instead of the default set")
	rootCmd.Flags().StringVar(&reportAssays, "assays", "", "Semicolon separated assay columns (ignored with --all)")
	rootCmd.Flags().BoolVar(&reportAllAudits, "allaudits", false, "Also count WARNING and DCC ACTION audits")
	rootCmd.Flags().StringVar(&reportOutfile, "outfile", "Error_Count.xlsx", "Report file (tab separated text)")

	// Report flags - Connection
	rootCmd.Flags().StringVar(&reportKey, "key", "default", "Keypair name in the keyfile")
	rootCmd.Flags().StringVar(&reportKeyfile, "keyfile", "~/keypairs.json", "Keypair file")
	rootCmd.Flags().StringVar(&reportServer, "server", "", "Portal URL, overrides the keyfile server")
	rootCmd.Flags().IntVar(&reportTimeout, "timeout", 60, "Request timeout in seconds (0 disables)")

	// Report flags - History
	rootCmd.Flags().BoolVar(&reportHistory, "history", false, "Record this run in the history database")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history-path", "", "History database (default: state directory)")

	cli.SetupGroupedHelp(rootCmd, cli.ReportFlagGroups)

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if kind := errors.GetKind(err); kind != errors.KindUnknown {
			printError("%s error: %v", kind, err)
		} else {
			printError("%v", err)
		}
		os.Exit(1)
	}
}
