// Package consent answers whether an athlete agreed to have their
// recordings evaluated for a purpose.
package consent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/talentcheck/pkg/logger"
)

// Gate reports consent for an athlete and purpose.
type Gate interface {
	HasConsent(ctx context.Context, athleteID, purpose string) (bool, error)
}

// Grant is a recorded consent decision.
type Grant struct {
	AthleteID string    `json:"athlete_id"`
	Purpose   string    `json:"purpose"`
	Granted   bool      `json:"granted"`
	UpdatedAt time.Time `json:"updated_at"`
}

type key struct{ athlete, purpose string }

// MemoryGate keeps consent decisions in memory. Athletes without a recorded
// decision fall back to the default.
type MemoryGate struct {
	mu             sync.RWMutex
	grants         map[key]Grant
	defaultGranted bool
	logger         logger.Logger
}

// NewMemoryGate creates an empty gate.
func NewMemoryGate(opts ...Option) *MemoryGate {
	g := &MemoryGate{
		grants: make(map[key]Grant),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// HasConsent implements Gate.
func (g *MemoryGate) HasConsent(_ context.Context, athleteID, purpose string) (bool, error) {
	if strings.TrimSpace(athleteID) == "" {
		return false, ErrInvalidAthlete
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if grant, ok := g.grants[key{athleteID, purpose}]; ok {
		return grant.Granted, nil
	}
	return g.defaultGranted, nil
}

// SetConsent records a decision, replacing any earlier one.
func (g *MemoryGate) SetConsent(ctx context.Context, athleteID, purpose string, granted bool) (Grant, error) {
	if strings.TrimSpace(athleteID) == "" {
		return Grant{}, ErrInvalidAthlete
	}
	if strings.TrimSpace(purpose) == "" {
		return Grant{}, ErrInvalidPurpose
	}
	grant := Grant{AthleteID: athleteID, Purpose: purpose, Granted: granted, UpdatedAt: time.Now().UTC()}

	g.mu.Lock()
	g.grants[key{athleteID, purpose}] = grant
	g.mu.Unlock()

	g.logger.Info(ctx, "consent updated",
		logger.String("athlete_id", athleteID),
		logger.String("purpose", purpose),
		logger.Bool("granted", granted),
	)
	return grant, nil
}
