package pairing

import (
	"context"
	"log/slog"
	"time"

	"github.com/pythonstrup/openclaw-docker/internal/identity"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultDeadline     = 10 * time.Minute
)

// SelfApproveConfig holds resolved runtime config for the
// self-approval daemon. Zero intervals fall back to defaults.
type SelfApproveConfig struct {
	IdentityPath string
	Paths        Paths
	PollInterval time.Duration
	Deadline     time.Duration
}

// SelfApprover polls the pairing store and approves only the pending
// request whose device id matches this node's own identity. It exists
// to break the bootstrap deadlock where approving a device normally
// requires an already-paired device; it is not a general
// auto-approver.
type SelfApprover struct {
	cfg SelfApproveConfig
}

// NewSelfApprover creates the daemon with defaults applied.
func NewSelfApprover(cfg SelfApproveConfig) *SelfApprover {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = defaultDeadline
	}
	return &SelfApprover{cfg: cfg}
}

// Run polls until the node's own request is approved, the deadline
// elapses, or ctx is cancelled. It always returns nil: missing the
// window is an availability gap, never a reason to take the host
// process down.
func (s *SelfApprover) Run(ctx context.Context) error {
	deadline := time.NewTimer(s.cfg.Deadline)
	defer deadline.Stop()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	// First check runs immediately: a node restarting with an
	// existing pairing should not wait a full tick to find out.
	for {
		if s.tick() {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			slog.Info("self-approval window elapsed without a matching request")
			return nil
		case <-ticker.C:
		}
	}
}

// tick evaluates one poll cycle and reports whether the daemon is
// done (approved, already paired, or permanently a no-op).
func (s *SelfApprover) tick() bool {
	deviceID := identity.DeviceID(s.cfg.IdentityPath)
	if deviceID == "" {
		// No identity record means this node has nothing to defend.
		slog.Info("self-approval disabled: no device identity", "path", s.cfg.IdentityPath)
		return true
	}

	paired := s.cfg.Paths.LoadPaired()
	if _, ok := paired[deviceID]; ok {
		return true
	}

	pending := s.cfg.Paths.LoadPending()
	requestID := ownRequestID(pending, deviceID)
	if requestID == "" {
		return false
	}

	_, newPending, newPaired, err := Approve(pending, paired, requestID, time.Now())
	if err != nil {
		slog.Warn("self-approval rejected", "requestId", requestID, "error", err)
		return false
	}
	if err := s.cfg.Paths.SaveBoth(newPending, newPaired); err != nil {
		slog.Warn("self-approval write failed", "error", err)
		return false
	}

	slog.Info("device approved", "deviceId", deviceID, "requestId", requestID)
	return true
}

// ownRequestID finds the newest approvable pending request for
// deviceID, or "". Requests for any other device id are never
// candidates, and requests that would fail validation are skipped so
// one malformed entry cannot shadow an older valid one.
func ownRequestID(pending Pending, deviceID string) string {
	own := make(Pending)
	for id, req := range pending {
		if req.DeviceID != deviceID {
			continue
		}
		if validateRequest(req) != nil {
			continue
		}
		own[id] = req
	}
	return MostRecentRequestID(own)
}
