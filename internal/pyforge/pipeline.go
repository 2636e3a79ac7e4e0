package pyforge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// pipeline threads one install request through the stages: fetch → extract →
// probe → reconcile → configure → make → altinstall. The collaborators are
// function fields so the sequencing and cleanup rules are testable without
// touching the network or spawning builds.
type pipeline struct {
	cfg *Config
	req *installRequest

	fetch     func(ctx context.Context, cfg *Config, version, destDir string) (string, error)
	extract   func(archive, dest string) error
	probe     func(ctx context.Context, interpreter string) (*OptionSet, error)
	configure func(ctx context.Context, dir string, opts *OptionSet) error
	build     func(ctx context.Context, dir string, jobs int) error
	install   func(ctx context.Context, dir string) error
}

func newPipeline(cfg *Config, req *installRequest) *pipeline {
	return &pipeline{
		cfg:     cfg,
		req:     req,
		fetch:   fetchSource,
		extract: extractArchive,
		probe:   inheritedOptions,
		configure: func(ctx context.Context, dir string, opts *OptionSet) error {
			_, err := newConfigurator(dir).run(ctx, opts)
			return err
		},
		build:   runMake,
		install: runAltInstall,
	}
}

// run executes the pipeline. Any stage failure aborts the remaining stages
// and propagates that stage's error. An ephemeral working directory is
// removed on every exit path except a remediable install failure, where it
// has to survive for the remediation command to make sense.
func (p *pipeline) run(ctx context.Context) (err error) {
	workDir := p.req.Directory
	ephemeral := workDir == ""
	if ephemeral {
		// MkdirTemp's random suffix keeps concurrent runs of the same
		// version from sharing (and then deleting) each other's tree.
		wd, mkErr := os.MkdirTemp(tmpDir, fmt.Sprintf("pyforge-%s-", p.req.Version))
		if mkErr != nil {
			return fmt.Errorf("failed to create working directory: %w", mkErr)
		}
		workDir = wd
		defer func() {
			var instErr *InstallError
			if errors.As(err, &instErr) && instErr.Remediable {
				debugf("Keeping %s so the manual install command works\n", workDir)
				return
			}
			if rmErr := os.RemoveAll(workDir); rmErr != nil {
				debugf("Failed to remove working directory %s: %v\n", workDir, rmErr)
			}
		}()
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory %s: %w", workDir, err)
	}

	archive, err := p.fetch(ctx, p.cfg, p.req.Version, workDir)
	if err != nil {
		return err
	}

	srcDir := filepath.Join(workDir, "Python-"+p.req.Version)
	if err := p.extract(archive, srcDir); err != nil {
		return &DownloadError{Version: p.req.Version, Err: err}
	}

	inherited, err := p.probe(ctx, p.req.Source)
	if err != nil {
		return err
	}

	opts := reconcileOptions(inherited, p.req.Optimize, p.req.Pip, p.req.Include, p.req.Exclude)
	debugf("Reconciled configure options: %s\n", opts)

	if err := p.configure(ctx, srcDir, opts); err != nil {
		return err
	}

	if err := p.build(ctx, srcDir, p.req.Threads); err != nil {
		return err
	}

	// Installation must not be torn down by a stray Ctrl+C; the signal
	// handler blocks the first interrupt while this is set.
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)
	return p.install(ctx, srcDir)
}
