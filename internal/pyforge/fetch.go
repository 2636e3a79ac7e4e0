package pyforge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// python.org is fine with the default, but corporate mirrors behind
	// slow TLS terminators are not.
	transport.TLSHandshakeTimeout = 30 * time.Second

	return &http.Client{
		Transport: transport,
		Timeout:   300 * time.Second, // 5 min total timeout for large downloads
	}
}

// fetchSource downloads the release archive for version into destDir and
// returns the archive path. An S3 mirror, when configured, is consulted
// first; python.org (or the HTTP mirror) is the fallback.
func fetchSource(ctx context.Context, cfg *Config, version, destDir string) (string, error) {
	archive := filepath.Join(destDir, fmt.Sprintf("Python-%s.tar.xz", version))

	// Already present (user-specified --directory reused across runs).
	if _, err := os.Stat(archive); err == nil {
		colArrow.Print("-> ")
		colSuccess.Printf("Using cached archive %s\n", archive)
		return archive, nil
	}

	mirror, err := newSourceMirror(ctx, cfg)
	if err != nil {
		return "", &DownloadError{Version: version, Err: err}
	}
	if mirror != nil {
		colArrow.Print("-> ")
		colSuccess.Printf("Fetching Python %s from S3 mirror\n", version)
		if err := mirror.fetchArchive(ctx, filepath.Base(archive), archive); err == nil {
			return archive, nil
		} else {
			debugf("S3 mirror fetch failed, falling back to HTTP: %v\n", err)
		}
	}

	url := fmt.Sprintf("%s/%s/Python-%s.tar.xz", cfg.ReleaseBase, version, version)
	colArrow.Print("-> ")
	colSuccess.Printf("Downloading %s\n", url)
	if err := downloadFile(ctx, url, archive); err != nil {
		os.Remove(archive) // don't leave a partial archive behind
		return "", &DownloadError{Version: version, Err: err}
	}
	return archive, nil
}

// downloadFile fetches a URL to destFile, preferring curl, then wget, then
// the native HTTP client. An flock around the target keeps concurrent runs
// sharing a --directory from clobbering each other's download.
func downloadFile(ctx context.Context, url, destFile string) error {
	if err := os.MkdirAll(filepath.Dir(destFile), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", destFile, err)
	}

	lockPath := destFile + ".lock"
	lFile, err := os.Create(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer lFile.Close()

	if err := unix.Flock(int(lFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock for download: %w", err)
	}
	defer unix.Flock(int(lFile.Fd()), unix.LOCK_UN)
	defer os.Remove(lockPath)

	// Another run may have finished the download while we waited for the lock.
	if _, err := os.Stat(destFile); err == nil {
		debugf("File %s appeared after acquiring lock, skipping download.\n", destFile)
		return nil
	}

	// --- Primary choice: curl ---
	if _, err := exec.LookPath("curl"); err == nil {
		cmd := exec.CommandContext(ctx, "curl", "-L", "--fail", "-#", "-o", destFile, url)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			return nil
		}
		debugf("curl failed, falling back to wget\n")
	} else {
		debugf("curl not found, trying wget\n")
	}

	// --- Fallback 1: wget ---
	if _, err := exec.LookPath("wget"); err == nil {
		cmd := exec.CommandContext(ctx, "wget", "-nv", "-O", destFile, url)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			return nil
		}
		debugf("wget failed, falling back to native Go HTTP client\n")
	} else {
		debugf("wget not found, using native Go HTTP client\n")
	}

	// --- Fallback 2: native Go HTTP client ---
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := newHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("native http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(destFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", destFile, err)
	}
	defer out.Close()

	var dst io.Writer = out
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(destFile))
		dst = io.MultiWriter(out, bar)
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to write to destination file: %w", err)
	}
	return nil
}

var releaseLinkRE = regexp.MustCompile(`href="(\d+\.\d+\.\d+)/"`)

// resolveVersion turns a two-component version like 3.12 into the newest
// patch release by listing the release index; full versions pass through.
// The S3 mirror's listing is preferred when one is configured.
func resolveVersion(ctx context.Context, cfg *Config, version string) (string, error) {
	if strings.Count(version, ".") == 2 {
		return version, nil
	}

	var candidates []string

	mirror, err := newSourceMirror(ctx, cfg)
	if err != nil {
		return "", &DownloadError{Version: version, Err: err}
	}
	if mirror != nil {
		keys, err := mirror.listArchives(ctx, "Python-"+version+".")
		if err == nil {
			for _, k := range keys {
				v := strings.TrimSuffix(strings.TrimPrefix(k, "Python-"), ".tar.xz")
				if versionRE.MatchString(v) {
					candidates = append(candidates, v)
				}
			}
		} else {
			debugf("S3 mirror listing failed, falling back to HTTP index: %v\n", err)
		}
	}

	if len(candidates) == 0 {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.ReleaseBase+"/", nil)
		if err != nil {
			return "", &DownloadError{Version: version, Err: err}
		}
		resp, err := newHTTPClient().Do(req)
		if err != nil {
			return "", &DownloadError{Version: version, Err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", &DownloadError{Version: version, Err: fmt.Errorf("release index returned %s", resp.Status)}
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return "", &DownloadError{Version: version, Err: err}
		}
		for _, m := range releaseLinkRE.FindAllStringSubmatch(string(body), -1) {
			if strings.HasPrefix(m[1], version+".") {
				candidates = append(candidates, m[1])
			}
		}
	}

	latest := newestRelease(candidates)
	if latest == "" {
		return "", &DownloadError{Version: version, Err: fmt.Errorf("no release found for %s", version)}
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Resolved %s to %s\n", version, latest)
	return latest, nil
}

// newestRelease picks the highest patch release from dotted versions.
func newestRelease(versions []string) string {
	sort.Slice(versions, func(i, j int) bool {
		return comparePatch(versions[i]) < comparePatch(versions[j])
	})
	if len(versions) == 0 {
		return ""
	}
	return versions[len(versions)-1]
}

func comparePatch(v string) int {
	parts := strings.Split(v, ".")
	n, _ := strconv.Atoi(parts[len(parts)-1])
	return n
}
