package pyforge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
)

// unrecognizedOptionRE matches the diagnostic configure emits for an option
// it does not know, in both the singular and plural spellings and with or
// without quoting around the flag.
var unrecognizedOptionRE = regexp.MustCompile(`unrecognized option(?:s)?:\s*[\x60'"]?(--[^\s'",\x60]+)`)

// configurator drives ./configure in the source tree. runCmd is swappable so
// the retry loop can be tested without spawning processes.
type configurator struct {
	dir    string
	runCmd func(ctx context.Context, dir string, args []string) ([]byte, error)
}

func newConfigurator(dir string) *configurator {
	return &configurator{dir: dir, runCmd: runConfigureCmd}
}

// runConfigureCmd invokes ./configure with the given options, streaming its
// output to the terminal while keeping a copy for diagnostic matching.
func runConfigureCmd(ctx context.Context, dir string, args []string) ([]byte, error) {
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, "./configure", args...)
	cmd.Dir = dir
	cmd.Stdout = io.MultiWriter(os.Stdout, &buf)
	cmd.Stderr = io.MultiWriter(os.Stderr, &buf)
	err := cmd.Run()
	return buf.Bytes(), err
}

// run invokes configure with the given options, shrinking the set by exactly
// the one option configure rejects as unrecognized and retrying until it
// succeeds. Any other failure is fatal and removes nothing. The option set is
// finite and strictly shrinks on every recoverable failure, so the loop
// always terminates. Returns the number of configure invocations.
func (c *configurator) run(ctx context.Context, opts *OptionSet) (int, error) {
	attempts := 0
	for {
		attempts++
		colArrow.Print("-> ")
		colSuccess.Printf("Running configure (attempt %d) with: %s\n", attempts, opts)

		output, err := c.runCmd(ctx, c.dir, opts.Slice())
		if err == nil {
			return attempts, nil
		}

		m := unrecognizedOptionRE.FindSubmatch(output)
		if m == nil {
			return attempts, &ConfigurationError{Err: err}
		}
		offending := string(m[1])
		if !opts.Remove(offending) {
			// configure complained about an option we never passed;
			// removing anything else would be a silent drop.
			return attempts, &ConfigurationError{
				Err: fmt.Errorf("rejected option %s is not in the option set: %w", offending, err),
			}
		}

		colArrow.Print("-> ")
		colWarn.Printf("configure rejected %s, retrying without it\n", offending)

		if opts.Len() == 0 {
			return attempts, &ConfigurationError{
				Err: fmt.Errorf("all options were rejected: %w", err),
			}
		}
	}
}
