package pyforge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// printHelp prints the usage table
func printHelp() {
	colSuccess.Println("Usage: pyforge <version> [source-interpreter|None] [flags] [configure options...]")
	colSuccess.Println("Builds the requested CPython release from source and runs make altinstall")
	fmt.Println()
	color.Info.Println("Arguments:")
	fmt.Println("  <version>              Release to build, e.g. 3.12.4 (3.12 resolves the newest patch)")
	fmt.Println("  [source-interpreter]   Installed interpreter to inherit configure options from")
	fmt.Println("                         (default: python3, or PYFORGE_PYTHON; 'None' disables inheritance)")
	fmt.Println()

	type flagInfo struct {
		Flag string
		Desc string
	}
	flags := []flagInfo{
		{"--directory <path>", "Working directory, kept after the run (default: ephemeral tmp dir, removed)"},
		{"--threads <int>", "Parallel make jobs (default 4)"},
		{"--without-optimizations", "Skip the PGO/LTO configure flags"},
		{"--without-pip", "Skip the bundled pip (ensurepip)"},
		{"--include <opt>...", "Force configure options into the final set"},
		{"--exclude <opt>...", "Force configure options out of the final set (wins over include)"},
	}

	color.Info.Println("Flags:")
	maxLen := 0
	for _, f := range flags {
		if len(f.Flag) > maxLen {
			maxLen = len(f.Flag)
		}
	}
	columnWidth := maxLen + 4
	for _, f := range flags {
		fmt.Print("  ")
		color.Bold.Print(f.Flag)
		pad := columnWidth - len(f.Flag)
		if pad < 1 {
			pad = 1
		}
		fmt.Print(strings.Repeat(" ", pad))
		color.Info.Println(f.Desc)
	}
	fmt.Println()
	fmt.Println("Bare trailing tokens are attributed to the nearest preceding --include or --exclude.")
	fmt.Println()
}

// stageName maps a pipeline error to the stage that produced it, for the
// exit message.
func stageName(err error) string {
	var (
		downloadErr  *DownloadError
		queryErr     *ConfigurationQueryError
		attrErr      *AttributionError
		configureErr *ConfigurationError
		makeErr      *MakeError
		installErr   *InstallError
	)
	switch {
	case errors.As(err, &downloadErr):
		return "download"
	case errors.As(err, &queryErr):
		return "query"
	case errors.As(err, &attrErr):
		return "reconcile"
	case errors.As(err, &configureErr):
		return "configure"
	case errors.As(err, &makeErr):
		return "build"
	case errors.As(err, &installErr):
		return "install"
	}
	return "setup"
}

// Main is the CLI entrypoint for pyforge.
func Main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// Signal handling: graceful cancel normally, but the install phase
	// blocks the first Ctrl+C and only a second one forces an exit.
	go func() {
		for {
			select {
			case sig := <-sigs:
				if isCriticalAtomic.Load() == 1 {
					colArrow.Print("\n-> ")
					colError.Printf("Install in progress. Press Ctrl+C AGAIN to force exit NOW.\n")
					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						colError.Printf("Forced immediate exit.")
						os.Exit(130)
					case <-time.After(5 * time.Second):
						continue
					case <-ctx.Done():
						return
					}
				} else {
					colArrow.Print("\n-> ")
					color.Danger.Printf("Received %v. Cancelling process gracefully\n", sig)
					cancel()
					time.Sleep(100 * time.Millisecond)
					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						color.Danger.Printf("Second interrupt received. Forcing immediate exit.")
						os.Exit(130)
					case <-time.After(2 * time.Second):
						colArrow.Print("\n-> ")
						color.Danger.Printf("Graceful shutdown timeout. Exiting.")
						os.Exit(0)
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if ctx.Err() != nil {
		return
	}

	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "version", "--version":
		fmt.Printf("pyforge %s (%s)\n", version, buildDate)
		return
	case "help", "-h", "--help":
		printHelp()
		return
	}

	cfg, err := loadConfig(ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to read %s: %v\n", ConfigFile, err)
	}
	initConfig(cfg)

	UserExec = &Executor{Context: ctx, ShouldRunAsRoot: false}
	RootExec = &Executor{Context: ctx, ShouldRunAsRoot: true, Interactive: true}

	req, err := parseInstallArgs(os.Args[1:], cfg)
	if err != nil {
		colError.Printf("Error: %v\n", err)
		fmt.Println()
		printHelp()
		os.Exit(1)
	}

	resolved, err := resolveVersion(ctx, cfg, req.Version)
	if err != nil {
		colError.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	req.Version = resolved

	if err := newPipeline(cfg, req).run(ctx); err != nil {
		var installErr *InstallError
		if errors.As(err, &installErr) && installErr.Remediable {
			// The build is done and the remediation command was already
			// printed; don't make this look like a failed build.
			return
		}
		colError.Printf("Error: stage %s failed: %v\n", stageName(err), err)
		os.Exit(1)
	}

	colArrow.Print("-> ")
	cPrintf(colSuccess, "Python %s installed successfully.\n", req.Version)
}
