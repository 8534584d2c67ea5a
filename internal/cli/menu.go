package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"servus/internal/global"
	"sort"
	"strings"
	"text/tabwriter"
)

const (
	RootCLICommand  string = "root"
	helpMenuTrailer string = `
Sensor readings and fabulas are relayed to Primus as avisos.
Status is served on http://localhost:15080/ while running.
`
)

// Full standardized help menu (wraps option printer as well)
func PrintHelpMenu(fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	writeHelpMenu(os.Stdout, fs, command, rootCmd)
}

func writeHelpMenu(out io.Writer, fs *flag.FlagSet, command string, rootCmd *global.CommandSet) {
	curCmdSet := rootCmd
	if command != "" && command != RootCLICommand {
		var found bool
		curCmdSet, found = rootCmd.ChildCommands[command]
		if !found {
			fmt.Fprintf(out, "Unknown command: %s\n", command)
			return
		}
	}

	// Usage line never names the root itself
	usageParts := []string{os.Args[0]}
	if curCmdSet != rootCmd {
		usageParts = append(usageParts, curCmdSet.CommandName)
	}
	if len(curCmdSet.ChildCommands) > 0 {
		usageParts = append(usageParts, "[subcommand]")
	}
	if curCmdSet.UsageOption != "" {
		usageParts = append(usageParts, curCmdSet.UsageOption)
	}
	fmt.Fprintf(out, "Usage: %s\n\n", strings.Join(usageParts, " "))

	if curCmdSet == rootCmd {
		fmt.Fprintf(out, "%s\n%s\n\n", curCmdSet.Description, curCmdSet.FullDescription)
	} else if curCmdSet.FullDescription != "" {
		fmt.Fprintf(out, "  Description:\n    %s\n\n", curCmdSet.FullDescription)
	}

	if len(curCmdSet.ChildCommands) > 0 {
		names := make([]string, 0, len(curCmdSet.ChildCommands))
		for name := range curCmdSet.ChildCommands {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintf(out, "  Subcommands:\n")
		table := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, name := range names {
			fmt.Fprintf(table, "    %s\t- %s\n", name, curCmdSet.ChildCommands[name].Description)
		}
		table.Flush()
		fmt.Fprintln(out)
	}

	if fs != nil {
		writeFlagOptions(out, fs)
	}

	if curCmdSet == rootCmd {
		fmt.Fprint(out, helpMenuTrailer)
	}
}

// Flags sharing a usage text are aliases and print on one line, short form first
func writeFlagOptions(out io.Writer, fs *flag.FlagSet) {
	type option struct {
		names      []string
		usage      string
		defaultVal string
	}

	byUsage := make(map[string]*option)
	var order []*option
	fs.VisitAll(func(arg *flag.Flag) {
		prefix := "--"
		if len(arg.Name) == 1 {
			prefix = "-"
		}

		opt, seen := byUsage[arg.Usage]
		if !seen {
			opt = &option{usage: arg.Usage, defaultVal: arg.DefValue}
			byUsage[arg.Usage] = opt
			order = append(order, opt)
		}
		opt.names = append(opt.names, prefix+arg.Name)
	})

	for _, opt := range order {
		sort.Slice(opt.names, func(a, b int) bool { return len(opt.names[a]) < len(opt.names[b]) })
	}
	sort.Slice(order, func(a, b int) bool {
		return strings.ToLower(strings.TrimLeft(order[a].names[0], "-")) < strings.ToLower(strings.TrimLeft(order[b].names[0], "-"))
	})

	fmt.Fprintf(out, "  Options:\n")
	table := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, opt := range order {
		desc := opt.usage
		// Skip printing any "empty" defaults
		if opt.defaultVal != "" && opt.defaultVal != "false" && opt.defaultVal != "0" {
			desc += fmt.Sprintf(" [default: %s]", opt.defaultVal)
		}
		fmt.Fprintf(table, "    %s\t%s\n", strings.Join(opt.names, ", "), desc)
	}
	table.Flush()
}
