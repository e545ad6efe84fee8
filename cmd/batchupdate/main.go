package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
)

// Context represents the global context for commands
type Context struct {
	Config    string
	Verbose   bool
	Quiet     bool
	LogFormat string
}

// CLI represents the command-line interface
var CLI struct {
	Config    string     `help:"Configuration file path" default:"batchupdate.yaml"`
	Verbose   bool       `help:"Enable verbose output" short:"v"`
	Quiet     bool       `help:"Suppress output" short:"q"`
	LogFormat string     `help:"Query log format" enum:"color,text,json" default:"color"`
	Plan      PlanCmd    `cmd:"" help:"Print the UPDATE statements for a set of records without touching the database"`
	Apply     ApplyCmd   `cmd:"" help:"Apply record changes to a database table"`
	Pull      PullCmd    `cmd:"" help:"Pull schema information from database"`
	Version   VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run() error {
	fmt.Println("batchupdate v0.1.0")
	return nil
}

// newLogger builds the slog logger that receives query log entries.
// Query entries are emitted at debug level, so they only show up with --verbose.
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	case "text":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	default:
		return slog.New(tint.NewHandler(w, &tint.Options{Level: level}))
	}
}

func main() {
	ctx := kong.Parse(&CLI)

	slog.SetDefault(newLogger(os.Stderr, CLI.LogFormat, CLI.Verbose))

	appCtx := &Context{
		Config:    CLI.Config,
		Verbose:   CLI.Verbose,
		Quiet:     CLI.Quiet,
		LogFormat: CLI.LogFormat,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
