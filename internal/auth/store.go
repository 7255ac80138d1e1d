package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists connections as JSON, one entry per service.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a store backed by path. The file is created on first save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStorePath returns <user config dir>/o365cli/connections.json.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config directory: %w", err)
	}
	return filepath.Join(dir, "o365cli", "connections.json"), nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the stored connection for service, or a disconnected one.
func (s *Store) Get(service Service) (*Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	if c, ok := all[service]; ok && c != nil {
		c.Service = service
		return c, nil
	}
	return &Connection{Service: service}, nil
}

// Save writes conn, replacing any previous connection of the same service.
func (s *Store) Save(conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	all[conn.Service] = conn
	return s.write(all)
}

// Delete removes the connection of service. Deleting a missing connection is not an error.
func (s *Store) Delete(service Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := all[service]; !ok {
		return nil
	}
	delete(all, service)
	return s.write(all)
}

func (s *Store) load() (map[Service]*Connection, error) {
	all := map[Service]*Connection{}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read connections: %w", err)
	}
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse connections %s: %w", s.path, err)
	}
	return all, nil
}

func (s *Store) write(all map[Service]*Connection) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create connections directory: %w", err)
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".connections-*.json")
	if err != nil {
		return fmt.Errorf("write connections: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write connections: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write connections: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write connections: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write connections: %w", err)
	}
	return nil
}
