package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/valet-app/molegate/internal/command"
)

// Approval records one explicit user consent, keyed by the normalized form
// of the command it was granted for. An approval authorizes exactly one
// subsequent execution; the caller revokes it after that execution, since
// the ledger cannot observe the external program actually running.
type Approval struct {
	NormalizedCommand string     `json:"normalizedCommand"`
	GrantedAt         time.Time  `json:"grantedAt"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
}

func (a Approval) expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// Ledger is the in-memory consent store. It is the only mutable shared
// state the gateway owns and must stay safe under concurrent grant,
// lookup, and revoke from overlapping interactions. Not persisted across
// process restarts.
type Ledger struct {
	mu     sync.Mutex
	grants map[string]Approval
	now    func() time.Time
}

func New() *Ledger {
	return &Ledger{
		grants: make(map[string]Approval),
		now:    time.Now,
	}
}

// Grant records consent for the command. With a nil ttl the approval never
// expires on its own and must be revoked by the caller after use; a TTL is
// only attached when explicitly asked for.
func (l *Ledger) Grant(cmd string, ttl *time.Duration) Approval {
	key := command.Normalize(cmd)

	l.mu.Lock()
	defer l.mu.Unlock()

	approval := Approval{
		NormalizedCommand: key,
		GrantedAt:         l.now(),
	}
	if ttl != nil {
		expiry := approval.GrantedAt.Add(*ttl)
		approval.ExpiresAt = &expiry
	}
	l.grants[key] = approval
	return approval
}

// IsGranted reports whether a live approval exists for the command,
// lazily evicting it if its expiry has passed.
func (l *Ledger) IsGranted(cmd string) bool {
	key := command.Normalize(cmd)

	l.mu.Lock()
	defer l.mu.Unlock()

	approval, ok := l.grants[key]
	if !ok {
		return false
	}
	if approval.expired(l.now()) {
		delete(l.grants, key)
		return false
	}
	return true
}

// Revoke removes the approval for the command, if any.
func (l *Ledger) Revoke(cmd string) {
	key := command.Normalize(cmd)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.grants, key)
}

// Clear drops every approval, e.g. at session end.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.grants = make(map[string]Approval)
}

// ListActive returns the live approvals sorted by key, evicting expired
// entries as a side effect.
func (l *Ledger) ListActive() []Approval {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	active := make([]Approval, 0, len(l.grants))
	for key, approval := range l.grants {
		if approval.expired(now) {
			delete(l.grants, key)
			continue
		}
		active = append(active, approval)
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].NormalizedCommand < active[j].NormalizedCommand
	})
	return active
}
