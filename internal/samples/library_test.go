package samples

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/irdumbs/jamcord/internal/errors"
)

// fakeFetcher resolves searches to canned URLs and writes a stub file.
type fakeFetcher struct {
	mu       sync.Mutex
	resolves int
	fetches  []string
	fail     error
	block    chan struct{} // when set, Fetch waits for ctx or this channel
}

func (f *fakeFetcher) Resolve(ctx context.Context, search string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolves++
	return "https://example.com/" + search, nil
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, dest string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	f.fetches = append(f.fetches, url)
	fail := f.fail
	f.mu.Unlock()
	if fail != nil {
		return fail
	}
	return os.WriteFile(dest, []byte("RIFF"), 0644)
}

func openTestLibrary(t *testing.T, fetcher Fetcher) *Library {
	t.Helper()
	lib, err := Open(t.TempDir(), fetcher, nil)
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	return lib
}

func TestLibrary_ListAndExists(t *testing.T) {
	lib := openTestLibrary(t, &fakeFetcher{})

	for _, name := range []string{"kick", "snare"} {
		if err := os.WriteFile(lib.Path(name), []byte("RIFF"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// non-audio files are ignored
	if err := os.WriteFile(filepath.Join(lib.Dir(), "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	names, err := lib.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "kick" || names[1] != "snare" {
		t.Errorf("unexpected listing %v", names)
	}
	if !lib.Exists("kick") || lib.Exists("hat") {
		t.Error("existence checks wrong")
	}
}

func TestLibrary_DownloadRecordsMetadata(t *testing.T) {
	lib := openTestLibrary(t, &fakeFetcher{})

	task, err := lib.Download(context.Background(), "kick", "funky kick drum", "Ace#1234", false)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("task failed: %v", err)
	}

	if !lib.Exists("kick") {
		t.Fatal("sample file missing after download")
	}
	info, err := lib.Info("kick")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Source != "https://example.com/funky kick drum" {
		t.Errorf("unexpected source %q", info.Source)
	}
	if info.Requester != "Ace#1234" {
		t.Errorf("unexpected requester %q", info.Requester)
	}
}

func TestLibrary_MetadataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	lib, err := Open(dir, &fakeFetcher{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	task, err := lib.Download(context.Background(), "kick", "https://example.com/k", "Ace", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir, &fakeFetcher{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := reopened.Info("kick")
	if err != nil {
		t.Fatal(err)
	}
	if info.Source != "https://example.com/k" || info.Requester != "Ace" {
		t.Errorf("metadata lost across reopen: %+v", info)
	}
}

func TestLibrary_ExistingSampleNeedsReplace(t *testing.T) {
	lib := openTestLibrary(t, &fakeFetcher{})
	if err := os.WriteFile(lib.Path("kick"), []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := lib.Download(context.Background(), "kick", "another kick", "Ace", false); !errors.Is(err, errors.ErrSampleExists) {
		t.Errorf("expected ErrSampleExists, got %v", err)
	}

	task, err := lib.Download(context.Background(), "kick", "another kick", "Ace", true)
	if err != nil {
		t.Fatalf("replace download: %v", err)
	}
	if err := task.Wait(context.Background()); err != nil {
		t.Fatalf("replace task failed: %v", err)
	}
}

func TestLibrary_SearchResolutionCached(t *testing.T) {
	fetcher := &fakeFetcher{}
	lib := openTestLibrary(t, fetcher)

	ctx := context.Background()
	first, err := lib.Resolve(ctx, "amen break")
	if err != nil {
		t.Fatal(err)
	}
	second, err := lib.Resolve(ctx, "amen break")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("cached resolution differs: %q vs %q", first, second)
	}
	if fetcher.resolves != 1 {
		t.Errorf("expected 1 fetcher resolve, got %d", fetcher.resolves)
	}

	// direct URLs bypass resolution entirely
	if url, _ := lib.Resolve(ctx, "https://example.com/direct"); url != "https://example.com/direct" {
		t.Errorf("URL input should pass through, got %q", url)
	}
	if fetcher.resolves != 1 {
		t.Errorf("URL input should not hit the fetcher, got %d resolves", fetcher.resolves)
	}
}

func TestLibrary_UnknownSampleInfo(t *testing.T) {
	lib := openTestLibrary(t, &fakeFetcher{})
	if _, err := lib.Info("ghost"); !errors.Is(err, errors.ErrSampleNotFound) {
		t.Errorf("expected ErrSampleNotFound, got %v", err)
	}
}

func TestTask_Cancel(t *testing.T) {
	fetcher := &fakeFetcher{block: make(chan struct{})}
	lib := openTestLibrary(t, fetcher)

	task, err := lib.Download(context.Background(), "kick", "https://example.com/k", "Ace", false)
	if err != nil {
		t.Fatal(err)
	}
	task.Cancel()

	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("canceled task never completed")
	}
	if !errors.Is(task.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", task.Err())
	}
	if lib.Exists("kick") {
		t.Error("canceled download must not leave a sample behind")
	}
}

func TestLibrary_WatchSeesExternalFiles(t *testing.T) {
	lib := openTestLibrary(t, &fakeFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type change struct {
		name  string
		added bool
	}
	changes := make(chan change, 4)
	if err := lib.Watch(ctx, func(name string, added bool) {
		changes <- change{name, added}
	}); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(lib.Path("dropped"), []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-changes:
		if c.name != "dropped" || !c.added {
			t.Errorf("unexpected change %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reported the new sample")
	}
}
