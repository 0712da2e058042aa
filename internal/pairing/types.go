// Package pairing implements the device pairing state machine.
//
// The gateway's pairing protocol writes unconfirmed requests into
// pending.json; approval promotes a request into paired.json, merging
// roles and scopes with any existing record for the same device and
// rotating the per-role capability token. The two collections are
// whole-file JSON documents replaced atomically on every write.
//
// Approval is the only consumer of a pending request, and paired
// devices are never deleted by this subsystem.
package pairing

// PendingRequest is an unconfirmed device's pairing ask, keyed by
// request id in pending.json. One device id should have at most one
// active request, but the store does not enforce that — duplicates
// are resolved by approving the most recent one.
type PendingRequest struct {
	RequestID   string   `json:"requestId"`
	DeviceID    string   `json:"deviceId"`
	PublicKey   string   `json:"publicKey,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	Platform    string   `json:"platform,omitempty"`
	ClientID    string   `json:"clientId,omitempty"`
	ClientMode  string   `json:"clientMode,omitempty"`
	Role        string   `json:"role,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
	RemoteIP    string   `json:"remoteIp,omitempty"`
	Silent      bool     `json:"silent,omitempty"`
	IsRepair    bool     `json:"isRepair,omitempty"`
	TS          int64    `json:"ts"` // unix millis
}

// DeviceToken is a capability credential scoped to one role.
// Approving the same role again rotates the token value in place,
// preserving createdAtMs.
type DeviceToken struct {
	Token        string   `json:"token"`
	Role         string   `json:"role"`
	Scopes       []string `json:"scopes"`
	CreatedAtMs  int64    `json:"createdAtMs"`
	RotatedAtMs  int64    `json:"rotatedAtMs,omitempty"`
	RevokedAtMs  int64    `json:"revokedAtMs,omitempty"`
	LastUsedAtMs int64    `json:"lastUsedAtMs,omitempty"`
}

// PairedDevice is a confirmed device identity, keyed by device id in
// paired.json. createdAtMs never changes once set; approvedAtMs
// advances on every re-approval.
type PairedDevice struct {
	DeviceID     string                 `json:"deviceId"`
	PublicKey    string                 `json:"publicKey,omitempty"`
	DisplayName  string                 `json:"displayName,omitempty"`
	Platform     string                 `json:"platform,omitempty"`
	ClientID     string                 `json:"clientId,omitempty"`
	ClientMode   string                 `json:"clientMode,omitempty"`
	Role         string                 `json:"role,omitempty"`
	Roles        []string               `json:"roles,omitempty"`
	Scopes       []string               `json:"scopes"`
	RemoteIP     string                 `json:"remoteIp,omitempty"`
	Tokens       map[string]DeviceToken `json:"tokens"`
	CreatedAtMs  int64                  `json:"createdAtMs"`
	ApprovedAtMs int64                  `json:"approvedAtMs"`
}

// Pending maps request id to PendingRequest (pending.json).
type Pending map[string]PendingRequest

// Paired maps device id to PairedDevice (paired.json).
type Paired map[string]PairedDevice
