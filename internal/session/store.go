// Package session persists the authenticated banking session across
// process runs. Only the cookie-equivalent tokens are stored, never
// credentials; whether a restored session is still valid can only be
// determined empirically by probing the site.
package session

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var log = logrus.New()

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// cookie is the persisted shape of a single session cookie.
type cookie struct {
	Name   string `yaml:"name"`
	Value  string `yaml:"value"`
	Domain string `yaml:"domain,omitempty"`
	Path   string `yaml:"path,omitempty"`
}

type sessionFile struct {
	SavedAt time.Time `yaml:"saved_at"`
	Cookies []cookie  `yaml:"cookies"`
}

// Store reads and writes the session file at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted session cookies. A missing or unreadable
// file is an error; callers treat it as "no session" and fall back to
// a full login.
func (s *Store) Load() ([]*http.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("error reading session file: %w", err)
	}

	var file sessionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing session file: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(file.Cookies))
	for _, c := range file.Cookies {
		cookies = append(cookies, &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}

	log.WithFields(logrus.Fields{
		"file":    s.path,
		"cookies": len(cookies),
		"age":     time.Since(file.SavedAt).Round(time.Second),
	}).Debug("Loaded persisted session")
	return cookies, nil
}

// Save writes the session cookies to disk. The file is created with
// owner-only permissions since the cookies grant account access.
func (s *Store) Save(cookies []*http.Cookie) error {
	file := sessionFile{SavedAt: time.Now()}
	for _, c := range cookies {
		file.Cookies = append(file.Cookies, cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("error serializing session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("error writing session file: %w", err)
	}

	log.WithField("file", s.path).Debug("Persisted session")
	return nil
}

// Invalidate removes the session file. Removing a file that does not
// exist is not an error.
func (s *Store) Invalidate() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing session file: %w", err)
	}
	return nil
}
