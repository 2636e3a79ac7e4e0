package pyforge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"

	"golang.org/x/sys/unix"
)

// altInstallPrefix is where `make altinstall` lands with CPython's default
// configure prefix.
const altInstallPrefix = "/usr/local"

// permissionFailureRE matches the diagnostics a failed privilege escalation
// or an unwritable prefix leaves behind.
var permissionFailureRE = regexp.MustCompile(`(?i)permission denied|operation not permitted|read-only file system|sudo:`)

// runAltInstall performs the privileged `make altinstall`. altinstall rather
// than install, so the system-default python is never overwritten. Only a
// permission-shaped failure degrades to the manual remediation command; any
// other install failure is a real defect and stays fatal.
func runAltInstall(ctx context.Context, dir string) error {
	colArrow.Print("-> ")
	colSuccess.Println("Installing with make altinstall")

	// A writable prefix means no elevation is needed at all (e.g. building
	// inside a container as root, or a user-owned prefix).
	needsRoot := true
	if err := unix.Access(altInstallPrefix, unix.W_OK); err == nil {
		needsRoot = false
		debugf("%s is writable, installing without privilege escalation\n", altInstallPrefix)
	}

	installExec := UserExec
	if needsRoot {
		installExec = RootExec
	}

	var output bytes.Buffer
	cmd := exec.Command("make", "altinstall")
	cmd.Dir = dir
	cmd.Stdout = io.MultiWriter(os.Stdout, &output)
	cmd.Stderr = io.MultiWriter(os.Stderr, &output)
	if err := installExec.Run(cmd); err != nil {
		if isPermissionFailure(output.Bytes(), err) {
			printInstallRemediation(dir)
			return &InstallError{Dir: dir, Err: err, Remediable: true}
		}
		return &InstallError{Dir: dir, Err: err}
	}
	return nil
}

// isPermissionFailure reports whether a failed altinstall was about
// privileges rather than the install itself.
func isPermissionFailure(output []byte, err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	return permissionFailureRE.Match(output)
}

// printInstallRemediation tells the user how to finish the installation
// manually when the privileged step failed.
func printInstallRemediation(dir string) {
	colArrow.Print("-> ")
	cPrintln(colWarn, "Installation needs elevated privileges. The build itself succeeded; finish it with:")
	fmt.Fprintf(os.Stderr, "\n    cd %s && sudo make altinstall\n\n", dir)
}
