package samples

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/irdumbs/jamcord/internal/errors"
)

// Sample is the metadata kept for one downloaded sample.
type Sample struct {
	Source    string    `toml:"source"`
	Requester string    `toml:"requester"`
	Added     time.Time `toml:"added"`
}

// document is the on-disk TOML layout.
type document struct {
	Samples map[string]Sample `toml:"samples"`
}

// Store persists sample metadata as a TOML document.
type Store struct {
	path string

	mu  sync.Mutex
	doc document
}

// OpenStore loads the metadata document at path, creating an empty one in
// memory if the file does not exist yet.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, doc: document{Samples: make(map[string]Sample)}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, &s.doc); err != nil {
		return nil, err
	}
	if s.doc.Samples == nil {
		s.doc.Samples = make(map[string]Sample)
	}
	return s, nil
}

// Get returns a sample's metadata.
func (s *Store) Get(name string) (Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sample, ok := s.doc.Samples[name]
	return sample, ok
}

// Put records a sample's metadata and saves the document.
func (s *Store) Put(name string, sample Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Samples[name] = sample
	return s.save()
}

// Delete removes a sample's metadata and saves the document. Removing an
// unknown name returns errors.ErrSampleNotFound.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Samples[name]; !ok {
		return errors.ErrSampleNotFound
	}
	delete(s.doc.Samples, name)
	return s.save()
}

// save writes the document; callers hold the lock.
func (s *Store) save() error {
	data, err := toml.Marshal(s.doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
