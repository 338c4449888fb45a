package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagGroup is a titled set of flag names shown together in help output.
type FlagGroup struct {
	Title string
	Flags []string
}

// ReportFlagGroups lists the report command flags by concern.
var ReportFlagGroups = []FlagGroup{
	{"FILTER OPTIONS", []string{"rfa", "species", "status", "lab"}},
	{"REPORT OPTIONS", []string{"all", "assays", "allaudits", "outfile"}},
	{"CONNECTION", []string{"key", "keyfile", "server", "timeout"}},
	{"HISTORY", []string{"history", "history-path"}},
	{"GLOBAL OPTIONS", []string{"help", "h", "config", "debug", "quiet", "q", "no-color"}},
}

// SetupGroupedHelp configures a command to display flags grouped by category
func SetupGroupedHelp(cmd *cobra.Command, groups []FlagGroup) {
	originalHelpFunc := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		// Subcommands keep cobra's default layout.
		if c != cmd {
			originalHelpFunc(c, args)
			return
		}

		// First print the original help without flags
		setHidden(c, true)
		originalHelpFunc(c, args)
		setHidden(c, false)

		out := c.OutOrStdout()
		fmt.Fprintln(out, "\nFlags:")
		for _, g := range groups {
			printFlagGroup(out, c, g)
		}

		fmt.Fprintln(out, "\nEnvironment Variables:")
		fmt.Fprintln(out, "  ENCODE_AUDIT_CONFIG         Path to the configuration file")
		fmt.Fprintln(out, "  ENCODE_AUDIT_KEYFILE        Keypairs file (default: ~/keypairs.json)")
		fmt.Fprintln(out, "  ENCODE_AUDIT_HISTORY_PATH   Run history database")
		fmt.Fprintln(out, "  ENCODE_AUDIT_CONFIG_HOME    Configuration directory (default: ~/.config/encode-audit)")
		fmt.Fprintln(out, "  ENCODE_AUDIT_STATE_HOME     State directory (default: ~/.local/state/encode-audit)")
		fmt.Fprintln(out, "  NO_COLOR                    Disable colored output")
	})
}

func setHidden(cmd *cobra.Command, hidden bool) {
	visit := func(flag *pflag.Flag) { flag.Hidden = hidden }
	cmd.Flags().VisitAll(visit)
	cmd.InheritedFlags().VisitAll(visit)
}

// printFlagGroup prints a group of flags with a header
func printFlagGroup(out io.Writer, cmd *cobra.Command, g FlagGroup) {
	var flags []*pflag.Flag
	seen := make(map[string]bool)

	for _, name := range g.Flags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil && len(name) == 1 {
			flag = cmd.Flags().ShorthandLookup(name)
		}
		if flag == nil || flag.Hidden || seen[flag.Name] {
			continue
		}
		seen[flag.Name] = true
		flags = append(flags, flag)
	}

	if len(flags) == 0 {
		return
	}

	fmt.Fprintf(out, "\n%s:\n", g.Title)
	for _, flag := range flags {
		fmt.Fprintln(out, FormatFlag(flag))
	}
}

// FormatFlag renders one help line for a flag.
func FormatFlag(flag *pflag.Flag) string {
	shorthand := ""
	if flag.Shorthand != "" {
		shorthand = fmt.Sprintf("-%s, ", flag.Shorthand)
	}

	flagLine := fmt.Sprintf("  %s--%s", shorthand, flag.Name)

	typeStr := ""
	switch flag.Value.Type() {
	case "string":
		if flag.DefValue != "" {
			typeStr = fmt.Sprintf(" string (default %q)", flag.DefValue)
		} else {
			typeStr = " string"
		}
	case "int", "int32", "int64":
		if flag.DefValue != "0" {
			typeStr = fmt.Sprintf(" int (default %s)", flag.DefValue)
		} else {
			typeStr = " int"
		}
	case "bool":
		typeStr = ""
	default:
		if flag.DefValue != "" && flag.DefValue != "[]" {
			typeStr = fmt.Sprintf(" (default %s)", flag.DefValue)
		}
	}

	padding := 40 - len(flagLine) - len(typeStr)
	if padding < 1 {
		padding = 1
	}

	return fmt.Sprintf("%s%s%s%s", flagLine, typeStr, strings.Repeat(" ", padding), flag.Usage)
}
