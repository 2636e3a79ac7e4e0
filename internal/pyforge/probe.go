package pyforge

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// noInheritSentinel disables option inheritance when given as the source
// interpreter argument.
const noInheritSentinel = "None"

// configArgsProbe makes an installed CPython report the configure arguments
// it was built with, e.g. '--enable-optimizations' '--with-lto'.
const configArgsProbe = "import sysconfig; print(sysconfig.get_config_var('CONFIG_ARGS'))"

// inheritedOptions queries the given interpreter for its configure options.
// The None sentinel short-circuits to an empty set without spawning anything.
func inheritedOptions(ctx context.Context, interpreter string) (*OptionSet, error) {
	if strings.EqualFold(interpreter, noInheritSentinel) {
		return newOptionSet(), nil
	}

	out, err := exec.CommandContext(ctx, interpreter, "-c", configArgsProbe).Output()
	if err != nil {
		return nil, &ConfigurationQueryError{Interpreter: interpreter, Err: err}
	}

	args, err := parseConfigArgs(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, &ConfigurationQueryError{Interpreter: interpreter, Err: err}
	}

	debugf("Inherited %d configure options from %s\n", len(args), interpreter)
	return newOptionSet(args...), nil
}

// parseConfigArgs splits the shell-quoted CONFIG_ARGS string sysconfig
// reports. Tokens are separated by whitespace; single or double quotes group
// a token and may appear mid-token ('--with-dbmliborder='ndbm').
func parseConfigArgs(s string) ([]string, error) {
	if s == "" || s == "None" {
		return nil, fmt.Errorf("interpreter does not expose CONFIG_ARGS")
	}

	var (
		args    []string
		current strings.Builder
		quote   rune
		open    bool
	)
	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
			current.Reset()
		}
	}
	for _, r := range s {
		switch {
		case open:
			if r == quote {
				open = false
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			open = true
			quote = r
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	if open {
		return nil, fmt.Errorf("unterminated quote in CONFIG_ARGS: %s", s)
	}
	flush()
	return args, nil
}
