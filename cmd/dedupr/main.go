package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"

	dedupr "github.com/mattkeenan/dedupr/pkg"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	inv, fs, err := parseInvocation(args, getenv)
	if err != nil {
		fmt.Fprintf(stderr, "dedupr: %v\n", err)
		if isUsageError(err) {
			fmt.Fprintf(stderr, "Try 'dedupr --help' for more information.\n")
			return exitUsage
		}
		return exitFailure
	}

	switch {
	case inv.version:
		fmt.Fprintf(stdout, "dedupr %s\n", version)
		return exitOK
	case inv.help:
		showHelp(stdout, fs)
		return exitOK
	case inv.writeConfig:
		if inv.config.Path() == "" {
			fmt.Fprintf(stderr, "dedupr: no config path, use --config\n")
			return exitUsage
		}
		if err := os.MkdirAll(filepath.Dir(inv.config.Path()), 0755); err != nil {
			fmt.Fprintf(stderr, "dedupr: failed to create config directory: %v\n", err)
			return exitFailure
		}
		if err := inv.config.Save(); err != nil {
			fmt.Fprintf(stderr, "dedupr: failed to write config: %v\n", err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "Config written to %s\n", inv.config.Path())
		return exitOK
	}

	opts := inv.options
	log := dedupr.NewLogger(opts.Verbose, stderr)

	ctx, stop := setupSignalContext(context.Background(), stderr)
	defer stop()

	bar := newProgressBar(stderr, !opts.Verbose && isTerminal(stderr))
	d := dedupr.New(opts,
		dedupr.WithLogger(log),
		dedupr.WithReportWriter(&dedupr.FileReportWriter{Path: opts.Output, Format: opts.Format}),
		dedupr.WithProgress(func(p dedupr.Progress) {
			bar.Describe(fmt.Sprintf("Scanning: %d folders, %d duplicates", p.Folders, p.Duplicates))
			_ = bar.Set64(p.Files)
		}),
	)

	result, err := d.Run(ctx)
	_ = bar.Finish()

	if result != nil {
		printSummary(stdout, result)
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "dedupr: %v\n", err)
		return exitFailure
	}
}

func newProgressBar(w io.Writer, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Scanning"),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// printSummary prints the totals of a run
func printSummary(w io.Writer, result *dedupr.Result) {
	stats := result.Stats
	bold := color.New(color.Bold)
	highlight := color.New(color.FgYellow, color.Bold)

	bold.Fprintf(w, "%d", stats.Distinct)
	fmt.Fprint(w, " distinct files, ")
	highlight.Fprintf(w, "%d", stats.Duplicates)
	fmt.Fprintf(w, " duplicates (%s reclaimable)", dedupr.HumanReadableSize(stats.ReclaimableBytes))
	if stats.Deleted > 0 {
		fmt.Fprintf(w, ", %d deleted", stats.Deleted)
	}
	fmt.Fprintf(w, " in %s\n", stats.Duration.Round(time.Millisecond))

	if stats.Errors > 0 {
		color.New(color.FgRed).Fprintf(w, "%d files or folders could not be processed\n", stats.Errors)
	}
}

func showHelp(w io.Writer, fs *pflag.FlagSet) {
	var presets []string
	for _, preset := range dedupr.Presets {
		presets = append(presets, "--"+preset.Name)
	}

	fmt.Fprintf(w, "dedupr - find and optionally delete duplicate files\n\n")
	fmt.Fprintf(w, "Usage: dedupr [OPTIONS] folders...\n\n")
	fmt.Fprintf(w, "Options:\n")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintf(w, "\nShortcuts %s pick a sample size and hash; the fastest one given wins.\n", strings.Join(presets, ", "))
	fmt.Fprintf(w, "Every long option can also be set as an environment variable, e.g. %s=8.\n\n", envName("parallel"))

	fmt.Fprintf(w, "Examples:\n")
	fmt.Fprintf(w, "  dedupr --fast ~/\n")
	fmt.Fprintf(w, "  dedupr --veryfast -e jpg,gif,png ~/photos ~/camera ~/downloads\n")
	fmt.Fprintf(w, "  dedupr -f -d -h sha512 -o duplicate-report.json /backup\n")
	fmt.Fprintf(w, "  dedupr -h md5 -s 16 /var\n")
	fmt.Fprintf(w, "  dedupr --set size:64K --set default:blake3 --write-config\n")
}
