package pairing

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// ErrNotFound reports that the requested id has no pending entry.
var ErrNotFound = errors.New("pairing request not found")

// InvalidRequestError reports a pending request whose device id or
// role cannot be used as a safe identifier. Unsafe values are never
// coerced or truncated.
type InvalidRequestError struct {
	Field string
	Value string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid pairing request: unsafe %s %q", e.Field, e.Value)
}

// Approve promotes the pending request with the given id to a paired
// device, returning the device id and the updated collections.
//
// It is pure: the input collections are never mutated and no I/O
// happens here. Persisting the result is the caller's job.
func Approve(pending Pending, paired Paired, requestID string, now time.Time) (string, Pending, Paired, error) {
	req, ok := pending[requestID]
	if !ok {
		return "", nil, nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}

	if err := validateRequest(req); err != nil {
		return "", nil, nil, err
	}
	deviceID := req.DeviceID
	role := req.Role

	prev := paired[deviceID]
	nowMs := now.UnixMilli()

	roles := mergeSets(prev.Roles, []string{prev.Role}, req.Roles, []string{req.Role})
	scopes := mergeSets(prev.Scopes, req.Scopes)
	if scopes == nil {
		scopes = []string{}
	}

	tokens := maps.Clone(prev.Tokens)
	if tokens == nil {
		tokens = make(map[string]DeviceToken)
	}
	// A request without a role rotates nothing: the prior token map is
	// carried forward as-is (empty on first approval).
	if role != "" {
		tok := DeviceToken{
			Token:       newToken(),
			Role:        role,
			Scopes:      scopes,
			CreatedAtMs: nowMs,
		}
		if prior, ok := tokens[role]; ok {
			tok.CreatedAtMs = prior.CreatedAtMs
			tok.RotatedAtMs = nowMs
			tok.LastUsedAtMs = prior.LastUsedAtMs
		}
		tokens[role] = tok
	}

	createdAt := prev.CreatedAtMs
	if createdAt == 0 {
		createdAt = nowMs
	}

	dev := PairedDevice{
		DeviceID:     deviceID,
		PublicKey:    req.PublicKey,
		DisplayName:  req.DisplayName,
		Platform:     req.Platform,
		ClientID:     req.ClientID,
		ClientMode:   req.ClientMode,
		Role:         role,
		Roles:        roles,
		Scopes:       scopes,
		RemoteIP:     req.RemoteIP,
		Tokens:       tokens,
		CreatedAtMs:  createdAt,
		ApprovedAtMs: nowMs,
	}

	newPending := maps.Clone(pending)
	delete(newPending, requestID)
	newPaired := maps.Clone(paired)
	if newPaired == nil {
		newPaired = make(Paired)
	}
	newPaired[deviceID] = dev

	return deviceID, newPending, newPaired, nil
}

// MostRecentRequestID returns the id of the newest pending request by
// creation timestamp, or "" when the collection is empty. Ties break
// lexicographically so the choice is deterministic.
func MostRecentRequestID(pending Pending) string {
	var best string
	var bestTS int64 = -1
	for id, req := range pending {
		if req.TS > bestTS || (req.TS == bestTS && id < best) {
			best = id
			bestTS = req.TS
		}
	}
	return best
}

// validateRequest checks the request's identifiers against the safe
// set. Values are validated raw and rejected outright — a padded or
// otherwise unsafe id is never coerced into an acceptable one.
func validateRequest(req PendingRequest) error {
	if req.DeviceID == "" || !safeIdentifier(req.DeviceID) {
		return &InvalidRequestError{Field: "device id", Value: req.DeviceID}
	}
	if req.Role != "" && !safeIdentifier(req.Role) {
		return &InvalidRequestError{Field: "role", Value: req.Role}
	}
	return nil
}

// safeIdentifier reports whether s contains only characters allowed
// in identifiers that end up in file paths and token maps.
func safeIdentifier(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == ':' || r == '.':
		default:
			return false
		}
	}
	return true
}

// mergeSets unions the given lists, deduplicated and sorted, skipping
// empty strings. Elements are taken verbatim — only membership is
// computed, never normalization. Returns nil for an empty union so
// the field is omitted entirely.
func mergeSets(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// newToken generates a 256-bit random token, URL-safe base64 without
// padding.
func newToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
