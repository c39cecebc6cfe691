package safety

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// confirmationTTL is how long an unredeemed confirmation token stays
// valid.
const confirmationTTL = 5 * time.Minute

// pendingAction is the request a token was issued for. It is kept so an
// operator-facing surface could later show what a dangling token would
// have done.
type pendingAction struct {
	tool        string
	resource    string
	description string
	requestedAt time.Time
}

// ConfirmationTracker issues and redeems the single-use tokens gating
// tools that can change monitoring behavior, such as reconfiguring
// alerting. The first call to a gated tool returns a token; the caller
// repeats the call with the token to proceed. Tokens expire after five
// minutes and are invalid after one use either way.
type ConfirmationTracker struct {
	gated map[string]struct{}

	mu      sync.Mutex
	pending map[string]pendingAction
}

// NewConfirmationTracker returns a tracker gating exactly the named
// tools. A nil or empty list gates nothing.
func NewConfirmationTracker(destructiveTools []string) *ConfirmationTracker {
	ct := &ConfirmationTracker{
		gated:   make(map[string]struct{}, len(destructiveTools)),
		pending: make(map[string]pendingAction),
	}
	for _, tool := range destructiveTools {
		ct.gated[tool] = struct{}{}
	}
	return ct
}

// NeedsConfirmation reports whether tool is gated.
func (ct *ConfirmationTracker) NeedsConfirmation(tool string) bool {
	_, ok := ct.gated[tool]
	return ok
}

// RequestConfirmation issues a fresh token for the described action and
// returns it. Expired tokens from earlier requests are swept on the way.
func (ct *ConfirmationTracker) RequestConfirmation(tool, resourceName, description string) string {
	token := newConfirmationToken()

	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.sweepExpired()
	ct.pending[token] = pendingAction{
		tool:        tool,
		resource:    resourceName,
		description: description,
		requestedAt: time.Now(),
	}
	return token
}

// Confirm redeems token. It reports true only for a known, unexpired
// token, and the token is consumed regardless of the outcome.
func (ct *ConfirmationTracker) Confirm(token string) bool {
	if token == "" {
		return false
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	action, ok := ct.pending[token]
	if !ok {
		return false
	}
	delete(ct.pending, token)

	return time.Since(action.requestedAt) <= confirmationTTL
}

// sweepExpired drops every pending token past its TTL. The caller must
// hold ct.mu.
func (ct *ConfirmationTracker) sweepExpired() {
	for token, action := range ct.pending {
		if time.Since(action.requestedAt) > confirmationTTL {
			delete(ct.pending, token)
		}
	}
}

func newConfirmationToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unheard of; a timestamp
		// still yields a usable single-use value.
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b[:])
}
