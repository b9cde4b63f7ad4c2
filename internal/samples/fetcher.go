package samples

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Fetcher resolves search terms to a source URL and downloads audio from it.
type Fetcher interface {
	// Resolve turns free-form search terms into a concrete source URL.
	Resolve(ctx context.Context, search string) (string, error)

	// Fetch downloads the audio at url and writes it to dest.
	Fetch(ctx context.Context, url, dest string) error
}

// CommandFetcher shells out to an external downloader (yt-dlp compatible
// flags). The blocking subprocess work is expected to run inside a Task.
type CommandFetcher struct {
	argv []string
}

// NewCommandFetcher creates a fetcher around the given argv prefix.
func NewCommandFetcher(argv []string) (*CommandFetcher, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("samples: empty fetch command")
	}
	return &CommandFetcher{argv: argv}, nil
}

// Resolve asks the downloader for the first search result's URL.
func (f *CommandFetcher) Resolve(ctx context.Context, search string) (string, error) {
	args := append(append([]string(nil), f.argv[1:]...),
		"--skip-download", "--print", "webpage_url", "ytsearch1:"+search)
	cmd := exec.CommandContext(ctx, f.argv[0], args...)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("samples: resolve %q: %w: %s", search, err, strings.TrimSpace(stderr.String()))
	}

	url := strings.TrimSpace(strings.SplitN(out.String(), "\n", 2)[0])
	if url == "" {
		return "", fmt.Errorf("samples: no result for %q", search)
	}
	return url, nil
}

// Fetch downloads the audio at url into dest.
func (f *CommandFetcher) Fetch(ctx context.Context, url, dest string) error {
	args := append(append([]string(nil), f.argv[1:]...), "--output", dest, url)
	cmd := exec.CommandContext(ctx, f.argv[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("samples: fetch %s: %w: %s", url, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
