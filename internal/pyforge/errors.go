package pyforge

import "fmt"

// Each pipeline stage fails with its own error kind so callers can tell
// which stage broke and whether the failure is recoverable. Only the
// install stage degrades to guidance instead of aborting the run.

// DownloadError covers both the archive fetch and its extraction.
type DownloadError struct {
	Version string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading Python %s failed: %v", e.Version, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ConfigurationQueryError means the inherited-options probe of an installed
// interpreter could not run or did not report its configure arguments.
type ConfigurationQueryError struct {
	Interpreter string
	Err         error
}

func (e *ConfigurationQueryError) Error() string {
	return fmt.Sprintf("querying configure options from %s failed: %v", e.Interpreter, e.Err)
}

func (e *ConfigurationQueryError) Unwrap() error { return e.Err }

// AttributionError reports a free command-line token with no preceding
// --include or --exclude marker. A silently misclassified option would
// change the resulting interpreter's build, so this is always fatal.
type AttributionError struct {
	Token string
}

func (e *AttributionError) Error() string {
	return fmt.Sprintf("option %q follows neither --include nor --exclude", e.Token)
}

// ConfigurationError means configure failed for a reason other than a single
// recognizable unrecognized option. Nothing was removed from the option set.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configure failed: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// MakeError is a compile failure from the parallel make.
type MakeError struct {
	Err error
}

func (e *MakeError) Error() string {
	return fmt.Sprintf("make failed: %v", e.Err)
}

func (e *MakeError) Unwrap() error { return e.Err }

// InstallError is a failed `make altinstall`. Remediable marks the failure
// as a privilege problem: the build itself is fine and the pipeline degrades
// to manual remediation instructions instead of treating the run as lost.
// Anything else (disk full, a broken install target) stays fatal.
type InstallError struct {
	Dir        string
	Err        error
	Remediable bool
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("altinstall in %s failed: %v", e.Dir, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }
