package pyforge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePipeline wires a pipeline whose collaborators record the stages they
// ran and write nothing real. failAt aborts that stage with the given error.
func fakePipeline(t *testing.T, req *installRequest, failAt string, failErr error) (*pipeline, *[]string, *string) {
	t.Helper()

	var stages []string
	var workDir string
	stage := func(name string) error {
		stages = append(stages, name)
		if name == failAt {
			return failErr
		}
		return nil
	}

	p := &pipeline{
		cfg: testConfig(),
		req: req,
		fetch: func(_ context.Context, _ *Config, version, destDir string) (string, error) {
			workDir = destDir
			return filepath.Join(destDir, "Python-"+version+".tar.xz"), stage("fetch")
		},
		extract: func(_, dest string) error {
			if err := stage("extract"); err != nil {
				return err
			}
			return os.MkdirAll(dest, 0o755)
		},
		probe: func(_ context.Context, _ string) (*OptionSet, error) {
			return newOptionSet("--with-x"), stage("probe")
		},
		configure: func(_ context.Context, _ string, _ *OptionSet) error {
			return stage("configure")
		},
		build: func(_ context.Context, _ string, _ int) error {
			return stage("build")
		},
		install: func(_ context.Context, _ string) error {
			return stage("install")
		},
	}
	return p, &stages, &workDir
}

func testRequest() *installRequest {
	return &installRequest{
		Version:  "3.12.4",
		Source:   "python3",
		Threads:  4,
		Optimize: true,
		Pip:      true,
	}
}

func TestPipelineRunsAllStagesInOrder(t *testing.T) {
	tmpDir = t.TempDir()

	p, stages, workDir := fakePipeline(t, testRequest(), "", nil)
	require.NoError(t, p.run(context.Background()))

	assert.Equal(t, []string{"fetch", "extract", "probe", "configure", "build", "install"}, *stages)

	// Ephemeral working directory is gone after a successful run.
	_, err := os.Stat(*workDir)
	assert.True(t, os.IsNotExist(err))
}

func TestPipelineAbortsOnStageFailure(t *testing.T) {
	cases := []struct {
		failAt string
		err    error
		after  []string
	}{
		{"fetch", &DownloadError{Version: "3.12.4", Err: fmt.Errorf("boom")}, []string{"fetch"}},
		{"probe", &ConfigurationQueryError{Interpreter: "python3", Err: fmt.Errorf("boom")}, []string{"fetch", "extract", "probe"}},
		{"configure", &ConfigurationError{Err: fmt.Errorf("boom")}, []string{"fetch", "extract", "probe", "configure"}},
		{"build", &MakeError{Err: fmt.Errorf("boom")}, []string{"fetch", "extract", "probe", "configure", "build"}},
	}

	for _, tc := range cases {
		t.Run(tc.failAt, func(t *testing.T) {
			tmpDir = t.TempDir()

			p, stages, workDir := fakePipeline(t, testRequest(), tc.failAt, tc.err)
			err := p.run(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.after, *stages, "later stages must not run")

			// Cleanup still happens on failure paths.
			_, statErr := os.Stat(*workDir)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestPipelineKeepsWorkDirWhenInstallNeedsPrivileges(t *testing.T) {
	tmpDir = t.TempDir()

	req := testRequest()
	p, _, workDir := fakePipeline(t, req, "install", &InstallError{Dir: "x", Err: fmt.Errorf("permission denied"), Remediable: true})
	err := p.run(context.Background())

	var installErr *InstallError
	require.ErrorAs(t, err, &installErr)
	assert.True(t, installErr.Remediable)

	// The remediation command points into the working directory, so it must
	// survive a privilege failure.
	_, statErr := os.Stat(*workDir)
	assert.NoError(t, statErr)
}

func TestPipelineCleansUpWhenInstallFailsFatally(t *testing.T) {
	tmpDir = t.TempDir()

	req := testRequest()
	p, _, workDir := fakePipeline(t, req, "install", &InstallError{Dir: "x", Err: fmt.Errorf("no space left on device")})
	err := p.run(context.Background())

	var installErr *InstallError
	require.ErrorAs(t, err, &installErr)
	assert.False(t, installErr.Remediable)

	// Only a privilege failure justifies leaving the tree behind.
	_, statErr := os.Stat(*workDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipelineScratchDirsNeverCollide(t *testing.T) {
	tmpDir = t.TempDir()

	// Two runs of the same version whose trees both survive (remediable
	// install failures) must not have shared a working directory.
	fail := &InstallError{Dir: "x", Err: fmt.Errorf("permission denied"), Remediable: true}

	p1, _, dir1 := fakePipeline(t, testRequest(), "install", fail)
	require.Error(t, p1.run(context.Background()))
	p2, _, dir2 := fakePipeline(t, testRequest(), "install", fail)
	require.Error(t, p2.run(context.Background()))

	assert.NotEqual(t, *dir1, *dir2)
	_, err := os.Stat(*dir1)
	assert.NoError(t, err)
	_, err = os.Stat(*dir2)
	assert.NoError(t, err)
}

func TestPipelineNeverDeletesUserDirectory(t *testing.T) {
	userDir := t.TempDir()

	req := testRequest()
	req.Directory = userDir
	p, _, _ := fakePipeline(t, req, "build", &MakeError{Err: fmt.Errorf("boom")})
	require.Error(t, p.run(context.Background()))

	_, err := os.Stat(userDir)
	assert.NoError(t, err)
}

func TestStageNameMapping(t *testing.T) {
	assert.Equal(t, "download", stageName(&DownloadError{}))
	assert.Equal(t, "query", stageName(&ConfigurationQueryError{}))
	assert.Equal(t, "reconcile", stageName(&AttributionError{Token: "--x"}))
	assert.Equal(t, "configure", stageName(&ConfigurationError{}))
	assert.Equal(t, "build", stageName(&MakeError{}))
	assert.Equal(t, "install", stageName(&InstallError{}))
	assert.Equal(t, "setup", stageName(fmt.Errorf("anything else")))
}
