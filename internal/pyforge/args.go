package pyforge

import (
	"fmt"
	"regexp"
	"strconv"
)

// installRequest is everything one pyforge run needs, parsed from the raw
// argument list.
type installRequest struct {
	Version   string // full dotted release, e.g. 3.12.4
	Source    string // interpreter to inherit options from, or the None sentinel
	Directory string // user working directory; empty means ephemeral tmp
	Threads   int    // make -j value
	Optimize  bool   // PGO/LTO pair
	Pip       bool   // keep ensurepip
	Include   []string
	Exclude   []string
}

var versionRE = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// parseInstallArgs parses the raw argument list by hand. flag.FlagSet would
// discard the positions of free tokens, and position is exactly what decides
// whether a trailing configure option belongs to --include or --exclude: each
// free token is attributed to the nearest marker BEFORE it in the original
// sequence. A free token with no preceding marker (once the two positionals
// are taken) is an AttributionError, never a silent include.
func parseInstallArgs(argv []string, cfg *Config) (*installRequest, error) {
	req := &installRequest{
		Source:   cfg.DefaultPython,
		Threads:  4,
		Optimize: true,
		Pip:      true,
	}

	// kind of each consumed token, "" for free tokens
	const (
		tokFree    = ""
		tokFlag    = "flag"
		tokInclude = "include"
		tokExclude = "exclude"
	)
	kinds := make([]string, len(argv))

	var positionals []string
	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		switch tok {
		case "--directory":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--directory requires a path")
			}
			kinds[i], kinds[i+1] = tokFlag, tokFlag
			req.Directory = argv[i+1]
			i++
		case "--threads":
			if i+1 >= len(argv) {
				return nil, fmt.Errorf("--threads requires a number")
			}
			n, err := strconv.Atoi(argv[i+1])
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid --threads value %q", argv[i+1])
			}
			kinds[i], kinds[i+1] = tokFlag, tokFlag
			req.Threads = n
			i++
		case "--without-optimizations":
			kinds[i] = tokFlag
			req.Optimize = false
		case "--without-pip", "--without-ensurepip":
			kinds[i] = tokFlag
			req.Pip = false
		case "--include":
			kinds[i] = tokInclude
		case "--exclude":
			kinds[i] = tokExclude
		default:
			// free token, classified below
		}
	}

	for i, tok := range argv {
		if kinds[i] != tokFree {
			continue
		}

		// Scan backward for the nearest include/exclude marker.
		marker := tokFree
		for j := i - 1; j >= 0; j-- {
			if kinds[j] == tokInclude || kinds[j] == tokExclude {
				marker = kinds[j]
				break
			}
		}

		switch marker {
		case tokInclude:
			req.Include = append(req.Include, tok)
		case tokExclude:
			req.Exclude = append(req.Exclude, tok)
		default:
			if len(positionals) < 2 {
				positionals = append(positionals, tok)
				continue
			}
			return nil, &AttributionError{Token: tok}
		}
	}

	if len(positionals) == 0 {
		return nil, fmt.Errorf("a Python version is required")
	}
	req.Version = positionals[0]
	if !versionRE.MatchString(req.Version) {
		return nil, fmt.Errorf("invalid version %q, expected a dotted release like 3.12.4", req.Version)
	}
	if len(positionals) == 2 {
		req.Source = positionals[1]
	}

	return req, nil
}
