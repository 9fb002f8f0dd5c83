package cli

import (
	"fmt"
	"io"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

type Command struct {
	Name    string
	Summary string
	Usage   []string
	Run     func(args []string, stdout, stderr io.Writer) int
}

func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stdout)
		return ExitUsage
	}
	if isHelpArg(args[0]) {
		printUsage(stdout)
		return ExitOK
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return ExitUsage
	}

	return cmd.Run(args[1:], stdout, stderr)
}

func findCommand(name string) *Command {
	for _, cmd := range commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func wantsHelp(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			return true
		}
	}
	return false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ragtune <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintln(w, "\nUse \"ragtune <command> --help\" for more information.")
}

func printCommandUsage(cmd *Command, w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	for _, line := range cmd.Usage {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if cmd.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", cmd.Summary)
	}
}

func command(name, summary string, usage []string, runner func(cmd *Command) func(args []string, stdout, stderr io.Writer) int) *Command {
	cmd := &Command{
		Name:    name,
		Summary: summary,
		Usage:   usage,
	}
	cmd.Run = runner(cmd)
	return cmd
}

var commands = []*Command{
	command("init", "Scaffold a .ragtune project", []string{
		"ragtune init [--config <path>]",
	}, runInit),
	command("validate", "Validate the config and optional question set", []string{
		"ragtune validate [--config <path>] [--questions <path>]",
	}, runValidate),
	command("generate", "Generate a question set from document segments", []string{
		"ragtune generate [--config <path>] [--out <path>]",
	}, runGenerate),
	command("tune", "Run the closed-loop parameter tuner", []string{
		"ragtune tune [--config <path>] [--questions <path>] [--iterations <n>]",
		"             [--threshold <delta>] [--apply=<bool>] [--output-dir <path>]",
		"             [--workers <n>] [--model <name>] [--verbose] [--log <path>]",
		"             [--no-color] [--ui auto|live|plain]",
	}, runTune),
	command("ingest", "Load a finished run into the history database", []string{
		"ragtune ingest --db <history.duckdb> <run-dir>",
	}, runIngest),
	command("report", "Render the HTML history report", []string{
		"ragtune report --db <history.duckdb> [--output <path>]",
	}, runReport),
	command("serve", "Serve the history report over HTTP", []string{
		"ragtune serve [--addr <host:port>] <history.duckdb>",
	}, runServe),
}
