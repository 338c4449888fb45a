package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/nishad/encode-audit/internal/config"
	"github.com/nishad/encode-audit/internal/encode"
	"github.com/nishad/encode-audit/internal/errors"
	"github.com/nishad/encode-audit/internal/history"
	"github.com/nishad/encode-audit/internal/query"
	"github.com/nishad/encode-audit/internal/report"
	"github.com/nishad/encode-audit/internal/ui"
	"github.com/spf13/cobra"
)

// Report flags
var (
	reportRFA       string
	reportSpecies   string
	reportStatus    string
	reportLab       string
	reportAll       bool
	reportAssays    string
	reportAllAudits bool
	reportOutfile   string
	reportKey       string
	reportKeyfile   string
	reportServer    string
	reportTimeout   int
	reportHistory   bool
	historyPath     string
)

// settings is the resolved, read-only request context of one run.
type settings struct {
	creds       encode.Credentials
	filters     query.Filters
	opts        report.Options
	outfile     string
	timeout     time.Duration
	history     bool
	historyPath string
}

// loadConfig reads the configuration file named by --config or found by
// the usual lookup.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	printDebug("Using config %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.E(errors.Op("config.Load"), errors.KindConfig, err)
	}
	return cfg, nil
}

// resolveSettings merges configuration with explicitly set flags.
func resolveSettings(cmd *cobra.Command, cfg *config.Config) (*settings, error) {
	flags := cmd.Flags()
	pick := func(name, flagValue, cfgValue string) string {
		if flags.Changed(name) || cfgValue == "" {
			return flagValue
		}
		return cfgValue
	}

	keyfile := expandHome(pick("keyfile", reportKeyfile, cfg.Keyfile))
	key := pick("key", reportKey, cfg.Key)
	server := pick("server", reportServer, cfg.Server)

	creds, err := encode.LoadKeyfile(keyfile, key)
	if err != nil {
		if server == "" {
			return nil, err
		}
		// Released data is public, so a missing keyfile is not fatal when
		// the server is known.
		printWarning("%v; continuing without authentication", err)
		creds = encode.Credentials{}
	}
	if server != "" {
		creds.Server = server
	}
	creds, err = creds.Validate()
	if err != nil {
		return nil, err
	}

	s := &settings{
		creds:   creds,
		filters: query.NewFilters(reportRFA, reportSpecies, reportStatus, reportLab),
		opts: report.Options{
			Assays:    cfg.DefaultAssays,
			AllAssays: reportAll,
			AllAudits: reportAllAudits,
		},
		outfile:     pick("outfile", reportOutfile, cfg.Outfile),
		timeout:     cfg.Timeout(),
		history:     reportHistory || cfg.History.Enabled,
		historyPath: pick("history-path", historyPath, cfg.History.Path),
	}
	if flags.Changed("assays") {
		s.opts.Assays = query.ParseList(reportAssays)
		if len(s.opts.Assays) == 0 {
			return nil, errors.Errorf("report.settings", errors.KindConfig, "--assays lists no assays")
		}
	}
	if flags.Changed("timeout") {
		if reportTimeout < 0 {
			return nil, errors.Errorf("report.settings", errors.KindConfig, "--timeout must not be negative")
		}
		s.timeout = time.Duration(reportTimeout) * time.Second
	}
	if s.outfile == "" {
		return nil, errors.Errorf("report.settings", errors.KindConfig, "no output file given")
	}
	return s, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	printInfo("Some refinement searches return \"No results found\" (listed with --debug).")
	printInfo("This comes from the Long/Short RNA-seq split and does not affect the results.")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := encode.NewClient(s.creds, s.timeout)
	builder := report.NewBuilder(client, s.filters, s.opts)
	if debug {
		logger := log.New(os.Stderr, colorize(colorGray, "[DEBUG] "), log.Ltime)
		client.SetLogger(logger)
		builder.SetLogger(logger)
		errors.SetIgnoreLogger(logger)
	} else {
		errors.SetIgnoreLogger(nil)
	}

	printDebug("Server: %s", client.Server())
	printDebug("Matrix: %s", client.URL(s.filters.Matrix()))

	var ledger *history.Store
	var run *history.Run
	if s.history {
		ledger, run, err = startHistory(s, client)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	var spinner *ui.Spinner
	if !quiet && !debug {
		spinner = ui.NewSpinner("Fetching matrix")
		spinner.Start()
	}

	cells, unrecorded := 0, 0
	var recordErr error
	builder.SetObserver(func(c report.CellResult) {
		cells++
		if spinner != nil {
			spinner.Update("%s / %s: %s (%d searches)", c.BiosampleType, c.BiosampleName, c.Column, cells)
		}
		if ledger == nil {
			return
		}
		err := ledger.RecordCell(history.Cell{
			RunID:         run.ID,
			BiosampleType: c.BiosampleType,
			BiosampleName: c.BiosampleName,
			Column:        c.Column,
			URL:           c.URL,
			Total:         c.Tally.Total,
			Error:         c.Tally.Error,
			NotCompliant:  c.Tally.NotCompliant,
			Warning:       c.Tally.Warning,
			DCCAction:     c.Tally.DCCAction,
		})
		if err != nil {
			unrecorded++
			if recordErr == nil {
				recordErr = err
			}
		}
	})

	out, err := report.CreateFile(s.outfile)
	if err != nil {
		if spinner != nil {
			spinner.Stop("")
		}
		return err
	}

	summary, err := builder.Generate(ctx, out)
	if spinner != nil {
		spinner.Stop("")
	}
	if err == nil {
		err = out.Commit()
	} else {
		out.Abort()
	}

	if ledger != nil {
		rows, fetches := 0, 0
		if summary != nil {
			rows, fetches = summary.Rows, summary.Fetches
		}
		if unrecorded > 0 {
			printWarning("%d cells were not recorded in history: %v", unrecorded, recordErr)
		}
		if ferr := ledger.FinishRun(run.ID, client.URL(s.filters.Matrix()), rows, fetches, err); ferr != nil {
			printWarning("Run %s not finalized in history: %v", run.ID, ferr)
		}
	}
	if err != nil {
		return err
	}

	printDebug("%d groups, %d rows, %d requests", summary.Groups, summary.Rows, summary.Fetches)
	printInfo("Overall: %s", summary.Total.Label(s.opts.AllAudits))
	if run != nil {
		printInfo("Recorded as run %s", run.ID)
	}
	printSuccess("Output saved to %s, open this file with Google Sheets, not Excel", out.Path())
	return nil
}

func startHistory(s *settings, client *encode.Client) (*history.Store, *history.Run, error) {
	ledger, err := history.Open(s.historyPath)
	if err != nil {
		return nil, nil, err
	}

	var filters map[string][]string
	if !s.filters.IsEmpty() {
		filters = make(map[string][]string)
		for _, term := range s.filters.Terms() {
			if len(term.Values) > 0 {
				filters[term.Category.Name] = term.Values
			}
		}
	}

	run := &history.Run{
		Server:    client.Server(),
		MatrixURL: client.URL(s.filters.Matrix()),
		Filters:   filters,
		Outfile:   s.outfile,
		AllAssays: s.opts.AllAssays,
		AllAudits: s.opts.AllAudits,
	}
	if err := ledger.StartRun(run); err != nil {
		ledger.Close()
		return nil, nil, err
	}
	printDebug("History run %s in %s", run.ID, ledger.Path())
	return ledger, run, nil
}

// expandHome expands a leading ~ in flag values the shell left quoted.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
