package oauthflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"repfit/pkg/logging"
)

// stateFileName holds the pending flow within the storage directory. It
// is scoped to the oauth flow only and never collides with the session
// or guest demo namespaces.
const stateFileName = "oauth_state.json"

// FlowExpiry is how long a pending authorization flow stays redeemable.
// An abandoned flow past this age is treated like a state mismatch and
// the user must restart authorization.
const FlowExpiry = 10 * time.Minute

// PendingFlow is the locally persisted half of an authorization flow:
// the provider it belongs to and the one-time anti-forgery state token
// the backend issued at Begin.
type PendingFlow struct {
	Provider  string    `json:"provider"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// FlowStore persists the pending flow between the Begin and Complete
// halves of the redirect dance, which run in separate process
// invocations. The file carries a state token, so it gets the same 0600
// treatment as the session file.
type FlowStore struct {
	mu  sync.Mutex
	dir string

	unavailable bool
}

// NewFlowStore creates a flow store rooted at dir (the shared repfit
// storage directory).
func NewFlowStore(dir string) *FlowStore {
	s := &FlowStore{dir: dir}
	if dir == "" {
		s.unavailable = true
		return s
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		logging.Warn("OAuth", "Cannot create storage directory %s, flow persistence disabled: %v", dir, err)
		s.unavailable = true
	}
	return s
}

// Save persists the pending flow, replacing any previous one. Only one
// authorization flow can be pending at a time.
func (s *FlowStore) Save(flow *PendingFlow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return fmt.Errorf("flow persistence unavailable")
	}

	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal pending flow: %w", err)
	}
	if err := os.WriteFile(s.path(), data, 0600); err != nil {
		return fmt.Errorf("failed to persist pending flow: %w", err)
	}
	return nil
}

// Take consumes the pending flow: it is returned and deleted in one step
// so a state token can never be redeemed twice (replay protection).
func (s *FlowStore) Take() (*PendingFlow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return nil, false
	}

	data, err := os.ReadFile(s.path())
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("OAuth", "Failed to read pending flow: %v", err)
		}
		return nil, false
	}

	// Consume before validating so even a malformed file is single-use.
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		logging.Warn("OAuth", "Failed to remove pending flow file: %v", err)
	}

	var flow PendingFlow
	if err := json.Unmarshal(data, &flow); err != nil {
		logging.Warn("OAuth", "Discarding malformed pending flow: %v", err)
		return nil, false
	}
	return &flow, true
}

// Clear removes any pending flow without redeeming it.
func (s *FlowStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return
	}
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		logging.Warn("OAuth", "Failed to clear pending flow: %v", err)
	}
}

func (s *FlowStore) path() string {
	return filepath.Join(s.dir, stateFileName)
}
