package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ragtune/pkg/ratelimiter"
)

// Load replaces the registry contents with the states in the JSON file at
// path. A missing file loads as empty so a fresh project needs no limits
// file before its first Save.
func (r *Registry) Load(path string) error {
	if path == "" {
		return fmt.Errorf("registry path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var states []ratelimiter.LimitState
	if err := json.Unmarshal(data, &states); err != nil {
		return fmt.Errorf("parse limits file %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = make(map[ratelimiter.LimitKey]ratelimiter.LimitState, len(states))
	for _, state := range states {
		r.states[state.Definition.Key] = state
	}
	return nil
}

// Save writes the registry as indented JSON. The write goes through a
// temp file and rename so a crash never leaves a half-written limits file.
func (r *Registry) Save(path string) error {
	if path == "" {
		return fmt.Errorf("registry path is required")
	}
	payload, err := json.MarshalIndent(r.List(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := writeAndSync(tmp, payload); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func writeAndSync(path string, payload []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(payload); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
