package demo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"repfit/pkg/logging"
)

const (
	// demoSubdir is the namespace for guest demo data inside the repfit
	// storage directory. It is independent from the session and oauth
	// flow files and must never collide with them.
	demoSubdir = "demo"

	planFileName = "plan.json"

	// progressDays is the size of the rolling progress window.
	progressDays = 7

	// progressTimeLayout renders timestamps with millisecond precision
	// in UTC, matching what the progress views consume.
	progressTimeLayout = "2006-01-02T15:04:05.000Z"
)

// Exercise is one entry of a workout plan.
type Exercise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps int    `json:"reps"`
}

// Plan is a locally persisted workout plan for the guest demo.
type Plan struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt time.Time  `json:"created_at"`
}

// Provider fabricates a deterministic guest experience for visitors who
// decline to authenticate: a persisted starter workout plan and a
// synthetic rolling 7-day progress history. It is entirely backend-free
// and never touches the auth client or the token store.
type Provider struct {
	mu  sync.Mutex
	dir string

	// now is the wall clock; injectable for deterministic tests.
	now func() time.Time
}

// Option configures the provider.
type Option func(*Provider)

// WithClock overrides the wall clock used for progress generation.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a demo provider storing its data under
// <storageDir>/demo.
func NewProvider(storageDir string, opts ...Option) *Provider {
	p := &Provider{
		dir: filepath.Join(storageDir, demoSubdir),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan returns the persisted workout plan, creating and persisting the
// starter plan on first use. Idempotent after the first call.
func (p *Provider) Plan() (*Plan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	plan, err := p.readPlan()
	if err == nil {
		return plan, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	plan = starterPlan(p.now())
	if err := p.writePlan(plan); err != nil {
		return nil, err
	}
	logging.Info("Demo", "Starter workout plan created (%d exercises)", len(plan.Exercises))
	return plan, nil
}

// SavePlan overwrites the persisted plan unconditionally. There are no
// merge semantics.
func (p *Provider) SavePlan(plan *Plan) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writePlan(plan)
}

// Progress produces the synthetic rolling history: exactly 7 timestamps
// in chronological order, entry i being "now minus (6-i) days". The
// time-of-day component is preserved across all entries and month/year
// boundaries are handled by calendar arithmetic. The function reads only
// the wall clock and is deterministic for a fixed now.
func (p *Provider) Progress() []string {
	now := p.now().UTC()

	entries := make([]string, 0, progressDays)
	for i := 0; i < progressDays; i++ {
		day := now.AddDate(0, 0, -(progressDays - 1 - i))
		entries = append(entries, day.Format(progressTimeLayout))
	}
	return entries
}

func (p *Provider) planPath() string {
	return filepath.Join(p.dir, planFileName)
}

func (p *Provider) readPlan() (*Plan, error) {
	data, err := os.ReadFile(p.planPath())
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal demo plan: %w", err)
	}
	return &plan, nil
}

func (p *Provider) writePlan(plan *Plan) error {
	if err := os.MkdirAll(p.dir, 0700); err != nil {
		return fmt.Errorf("failed to create demo directory: %w", err)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal demo plan: %w", err)
	}
	if err := os.WriteFile(p.planPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to persist demo plan: %w", err)
	}
	return nil
}

// starterPlan is the fixed plan every guest starts with.
func starterPlan(createdAt time.Time) *Plan {
	return &Plan{
		ID:        ulid.Make().String(),
		Name:      "Starter Full Body",
		CreatedAt: createdAt,
		Exercises: []Exercise{
			{ID: ulid.Make().String(), Name: "Bodyweight Squat", Sets: 3, Reps: 12},
			{ID: ulid.Make().String(), Name: "Push-Up", Sets: 3, Reps: 10},
			{ID: ulid.Make().String(), Name: "Bent-Over Row", Sets: 3, Reps: 10},
			{ID: ulid.Make().String(), Name: "Plank", Sets: 3, Reps: 30},
			{ID: ulid.Make().String(), Name: "Glute Bridge", Sets: 3, Reps: 15},
		},
	}
}
