// Package scenario implements the on-disk scenario layout: loading,
// enumerating, and appending Interactions under
// <root>/<scenario>/<service>/<interaction>.yaml.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/getmockd/mitmcore/pkg/interaction"
)

// ErrNotInService is returned when the active scenario has no directory
// for a given service.
var ErrNotInService = errors.New("scenario: scenario not in service")

// Store resolves scenario/service directories under a configured root and
// mediates loading and recording of Interactions.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store rooted at root (e.g. mitmconfig.Config.ScenariosPath).
func New(root string) *Store {
	return &Store{root: root, locks: make(map[string]*sync.Mutex)}
}

// Dir returns the directory for a scenario+service pair.
func (s *Store) Dir(scenarioName, serviceName string) string {
	return filepath.Join(s.root, scenarioName, serviceName)
}

// dirLock returns (creating if needed) the mutex serializing allocation
// for a given directory, so concurrent recorders never allocate the same
// sequence number.
func (s *Store) dirLock(dir string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[dir]
	if !ok {
		l = &sync.Mutex{}
		s.locks[dir] = l
	}
	return l
}

// LoadInteractions enumerates the regular .yaml files in a scenario's
// service directory in lexicographic file-name order and loads each. If
// the directory does not exist, ErrNotInService is returned.
func (s *Store) LoadInteractions(scenarioName, serviceName string) ([]*interaction.Interaction, error) {
	dir := s.Dir(scenarioName, serviceName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInService
		}
		return nil, fmt.Errorf("scenario: read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]*interaction.Interaction, 0, len(names))
	for _, name := range names {
		in, err := interaction.Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// Exists reports whether the scenario's service directory exists.
func (s *Store) Exists(scenarioName, serviceName string) bool {
	info, err := os.Stat(s.Dir(scenarioName, serviceName))
	return err == nil && info.IsDir()
}

// Record allocates the next sequence-numbered name in the scenario's
// service directory (creating it if absent) and persists in under it.
// Allocation and write are serialized per-directory so concurrent
// recorders never collide on a name.
func (s *Store) Record(scenarioName, serviceName string, in *interaction.Interaction) error {
	dir := s.Dir(scenarioName, serviceName)
	lock := s.dirLock(dir)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scenario: mkdir %s: %w", dir, err)
	}

	name, err := interaction.NextSequenceName(dir)
	if err != nil {
		return err
	}
	in.Name = name

	return interaction.Save(in, dir)
}

// Enumerate walks the store root and returns, for each scenario, the list
// of interaction files per service — the shape the Management Service's
// GET /scenarios endpoint reports.
func (s *Store) Enumerate() (map[string]map[string][]string, error) {
	out := map[string]map[string][]string{}

	scenarios, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("scenario: read root %s: %w", s.root, err)
	}

	for _, sc := range scenarios {
		if !sc.IsDir() {
			continue
		}
		scenarioDir := filepath.Join(s.root, sc.Name())
		services, err := os.ReadDir(scenarioDir)
		if err != nil {
			continue
		}
		serviceFiles := map[string][]string{}
		for _, svc := range services {
			if !svc.IsDir() {
				continue
			}
			files, err := os.ReadDir(filepath.Join(scenarioDir, svc.Name()))
			if err != nil {
				continue
			}
			var names []string
			for _, f := range files {
				if !f.IsDir() && strings.HasSuffix(f.Name(), ".yaml") {
					names = append(names, f.Name())
				}
			}
			sort.Strings(names)
			serviceFiles[svc.Name()] = names
		}
		out[sc.Name()] = serviceFiles
	}
	return out, nil
}
