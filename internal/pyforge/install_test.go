package pyforge

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPermissionFailure(t *testing.T) {
	exitErr := fmt.Errorf("exit status 2")

	permissionOutputs := []string{
		"/usr/bin/install: cannot create regular file '/usr/local/bin/python3.12': Permission denied\nmake: *** [Makefile:1282: altinstall] Error 1",
		"mkdir: cannot create directory '/usr/local/lib/python3.12': Operation not permitted",
		"touch: cannot touch '/usr/local/bin/pip3.12': Read-only file system",
		"sudo: a password is required",
		"sudo: 3 incorrect password attempts",
	}
	for _, out := range permissionOutputs {
		assert.True(t, isPermissionFailure([]byte(out), exitErr), "should be remediable: %q", out)
	}

	fatalOutputs := []string{
		"OSError: [Errno 28] No space left on device\nmake: *** [Makefile:1282: altinstall] Error 1",
		"Segmentation fault (core dumped)",
		"make: *** No rule to make target 'altinstall'.  Stop.",
	}
	for _, out := range fatalOutputs {
		assert.False(t, isPermissionFailure([]byte(out), exitErr), "should be fatal: %q", out)
	}

	// An EACCES-shaped error is remediable even with no matching output.
	assert.True(t, isPermissionFailure(nil, os.ErrPermission))
	assert.True(t, isPermissionFailure(nil, fmt.Errorf("start: %w", os.ErrPermission)))
}
