// Package samples manages the shared sample library jams can pull sounds
// from: downloading audio through an external fetcher, persisting where each
// sample came from, and watching the directory for files added by hand.
package samples

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/logging"
)

// Ext is the audio format samples are stored in.
const Ext = ".wav"

// Library is the on-disk sample collection plus its metadata store.
type Library struct {
	dir     string
	store   *Store
	fetcher Fetcher
	log     *logging.Logger

	mu       sync.Mutex
	searches map[string]string // previous search terms -> resolved URL
}

// Open creates the sample directory if needed and loads the metadata store
// kept alongside it.
func Open(dir string, fetcher Fetcher, log *logging.Logger) (*Library, error) {
	if log == nil {
		log = logging.NopLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	store, err := OpenStore(filepath.Join(dir, "samples.toml"))
	if err != nil {
		return nil, err
	}
	return &Library{
		dir:      dir,
		store:    store,
		fetcher:  fetcher,
		log:      log,
		searches: make(map[string]string),
	}, nil
}

// Dir returns the library's directory.
func (l *Library) Dir() string { return l.dir }

// Path returns where a sample lives (whether or not it exists).
func (l *Library) Path(name string) string {
	return filepath.Join(l.dir, name+Ext)
}

// Exists reports whether a sample is present on disk.
func (l *Library) Exists(name string) bool {
	_, err := os.Stat(l.Path(name))
	return err == nil
}

// List returns the names of all samples on disk, sorted.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), Ext))
	}
	sort.Strings(names)
	return names, nil
}

// Info returns a sample's metadata. Samples dropped into the directory by
// hand have no recorded metadata and report an unknown source.
func (l *Library) Info(name string) (Sample, error) {
	if !l.Exists(name) {
		return Sample{}, errors.ErrSampleNotFound
	}
	if sample, ok := l.store.Get(name); ok {
		return sample, nil
	}
	return Sample{Source: "unknown source", Requester: "unknown person"}, nil
}

// Resolve turns search terms into a source URL, remembering previous
// resolutions so repeated requests skip the fetcher.
func (l *Library) Resolve(ctx context.Context, search string) (string, error) {
	if strings.HasPrefix(search, "http") {
		return search, nil
	}

	l.mu.Lock()
	if url, ok := l.searches[search]; ok {
		l.mu.Unlock()
		return url, nil
	}
	l.mu.Unlock()

	url, err := l.fetcher.Resolve(ctx, search)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	l.searches[search] = url
	l.mu.Unlock()
	return url, nil
}

// Download starts fetching a sample in the background and returns the task
// tracking it. An existing sample is only overwritten when replace is set;
// otherwise errors.ErrSampleExists is returned and nothing is touched.
func (l *Library) Download(ctx context.Context, name, urlOrSearch, requester string, replace bool) (*Task, error) {
	if l.Exists(name) && !replace {
		return nil, errors.ErrSampleExists
	}

	return newTask(ctx, func(ctx context.Context) (string, error) {
		url, err := l.Resolve(ctx, urlOrSearch)
		if err != nil {
			return "", err
		}

		if replace {
			_ = os.Remove(l.Path(name))
		}
		if err := l.fetcher.Fetch(ctx, url, l.Path(name)); err != nil {
			return url, err
		}

		sample := Sample{Source: url, Requester: requester, Added: time.Now()}
		if err := l.store.Put(name, sample); err != nil {
			l.log.Warn("sample metadata not saved", "sample", name, "error", err)
		}
		l.log.Info("sample downloaded", "sample", name, "source", url)
		return url, nil
	}), nil
}

// Remove deletes a sample and its metadata.
func (l *Library) Remove(name string) error {
	if !l.Exists(name) {
		return errors.ErrSampleNotFound
	}
	if err := os.Remove(l.Path(name)); err != nil {
		return err
	}
	if err := l.store.Delete(name); err != nil && !errors.Is(err, errors.ErrSampleNotFound) {
		return err
	}
	return nil
}

// Watch reports samples added to or removed from the directory outside the
// library (a rsync from a jam buddy, a manual delete). fn runs on the
// watcher goroutine until ctx is canceled.
func (l *Library) Watch(ctx context.Context, fn func(name string, added bool)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(l.dir); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, Ext) {
					continue
				}
				name := strings.TrimSuffix(filepath.Base(ev.Name), Ext)
				switch {
				case ev.Op.Has(fsnotify.Create):
					l.log.Debug("sample appeared", "sample", name)
					fn(name, true)
				case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
					l.log.Debug("sample vanished", "sample", name)
					fn(name, false)
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.log.Warn("sample watcher error", "error", werr)
			}
		}
	}()
	return nil
}
