package pyforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Values:        map[string]string{},
		DefaultPython: "python3",
		ReleaseBase:   "https://www.python.org/ftp/python",
	}
}

func TestParseInstallArgsDefaults(t *testing.T) {
	req, err := parseInstallArgs([]string{"3.12.4"}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, "3.12.4", req.Version)
	assert.Equal(t, "python3", req.Source)
	assert.Equal(t, 4, req.Threads)
	assert.True(t, req.Optimize)
	assert.True(t, req.Pip)
	assert.Empty(t, req.Directory)
}

func TestParseInstallArgsPositionalsAndFlags(t *testing.T) {
	req, err := parseInstallArgs([]string{
		"3.8.2", "None",
		"--directory", "/opt/builds",
		"--threads", "8",
		"--without-optimizations",
		"--without-pip",
	}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, "3.8.2", req.Version)
	assert.Equal(t, "None", req.Source)
	assert.Equal(t, "/opt/builds", req.Directory)
	assert.Equal(t, 8, req.Threads)
	assert.False(t, req.Optimize)
	assert.False(t, req.Pip)
}

func TestParseInstallArgsAttribution(t *testing.T) {
	req, err := parseInstallArgs([]string{
		"3.12.4",
		"--include", "--with-pydebug", "--with-system-expat",
		"--exclude", "--with-lto",
		"--include", "--enable-shared",
	}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"--with-pydebug", "--with-system-expat", "--enable-shared"}, req.Include)
	assert.Equal(t, []string{"--with-lto"}, req.Exclude)
}

func TestParseInstallArgsAttributionSkipsInterveningFlags(t *testing.T) {
	// --threads and its value sit between the marker and the free token; the
	// nearest preceding marker is still --include.
	req, err := parseInstallArgs([]string{
		"3.12.4",
		"--include",
		"--threads", "2",
		"--with-pydebug",
	}, testConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, req.Threads)
	assert.Equal(t, []string{"--with-pydebug"}, req.Include)
}

func TestParseInstallArgsUnattributableTokenIsFatal(t *testing.T) {
	_, err := parseInstallArgs([]string{"3.12.4", "None", "--with-pydebug"}, testConfig())
	require.Error(t, err)

	var attrErr *AttributionError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, "--with-pydebug", attrErr.Token)
}

func TestParseInstallArgsVersionRequired(t *testing.T) {
	_, err := parseInstallArgs([]string{"--threads", "2"}, testConfig())
	assert.Error(t, err)
}

func TestParseInstallArgsRejectsBadVersion(t *testing.T) {
	for _, v := range []string{"latest", "3", "3.12.4.1", "v3.12"} {
		_, err := parseInstallArgs([]string{v}, testConfig())
		assert.Error(t, err, "version %q should be rejected", v)
	}
}

func TestParseInstallArgsRejectsBadThreads(t *testing.T) {
	for _, v := range []string{"0", "-2", "many"} {
		_, err := parseInstallArgs([]string{"3.12.4", "--threads", v}, testConfig())
		assert.Error(t, err, "--threads %q should be rejected", v)
	}
}

func TestParseInstallArgsMissingFlagValue(t *testing.T) {
	_, err := parseInstallArgs([]string{"3.12.4", "--directory"}, testConfig())
	assert.Error(t, err)
	_, err = parseInstallArgs([]string{"3.12.4", "--threads"}, testConfig())
	assert.Error(t, err)
}
