package gate

import "strings"

// Action is the terminal outcome of a gate evaluation
type Action string

const (
	ActionError         Action = "ERROR"
	ActionForceBlocked  Action = "FORCE_BLOCKED"
	ActionUpToDate      Action = "UP_TO_DATE"
	ActionUpdateStarted Action = "UPDATE_STARTED"
	ActionOpenStore     Action = "OPEN_STORE"
)

// Reason explains an Action
type Reason string

const (
	ReasonNoActivity         Reason = "NO_ACTIVITY"
	ReasonBadArgs            Reason = "BAD_ARGS"
	ReasonNotPlayInstall     Reason = "NOT_PLAY_INSTALL"
	ReasonBelowMinVersion    Reason = "BELOW_MIN_VERSION"
	ReasonUpdateNotAvailable Reason = "UPDATE_NOT_AVAILABLE"
	ReasonUpdateNotAllowed   Reason = "UPDATE_NOT_ALLOWED"
	ReasonNoRuleMatched      Reason = "NO_RULE_MATCHED"

	reasonStartUpdateFailed = "START_UPDATE_FAILED"
	reasonPlayCoreError     = "PLAY_CORE_ERROR"
)

// StartUpdateFailed is the reason reported when the in-place update flow
// could not be started
func StartUpdateFailed(detail string) Reason {
	return withDetail(reasonStartUpdateFailed, detail)
}

// PlayCoreError is the reason reported when the live availability query failed
func PlayCoreError(detail string) Reason {
	return withDetail(reasonPlayCoreError, detail)
}

func withDetail(code, detail string) Reason {
	if strings.TrimSpace(detail) == "" {
		detail = "unknown"
	}
	return Reason(code + ": " + detail)
}

// InstallerSource classifies how the application was installed.
// The zero value means the platform cannot observe it.
type InstallerSource string

const (
	InstallerPlayStore InstallerSource = "play_store"
	InstallerSideload  InstallerSource = "sideload"
	InstallerOther     InstallerSource = "other"
	InstallerUnknown   InstallerSource = "unknown"
)

// Mode selects the in-place update style
type Mode string

const (
	ModeImmediate Mode = "immediate"
	ModeFlexible  Mode = "flexible"
)

// ParseMode maps "flexible" to ModeFlexible and anything else to ModeImmediate.
// The match ignores case and surrounding whitespace, so " Flexible " is
// flexible; host shells that compare the exact string treat it as immediate.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeFlexible)) {
		return ModeFlexible
	}
	return ModeImmediate
}

// Platform tags the host a report was produced for
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// Capabilities describes what a host platform can observe and do
type Capabilities struct {
	InstallerSource bool `json:"installerSource"` // installer provenance is observable
	InPlaceUpdate   bool `json:"inPlaceUpdate"`   // an in-place update flow exists
}

// DefaultMinVersion is used when a request names no minimum
const DefaultMinVersion = "0.0.0"

// UpdateRequest is the caller's input to the gate.
// Zero fields take their defaults: DefaultMinVersion, ModeImmediate and the
// running app's own identifier.
type UpdateRequest struct {
	MinVersion       string `json:"minVersion,omitempty"`
	Mode             Mode   `json:"mode,omitempty"`
	PackageOrAppID   string `json:"packageOrAppId,omitempty"`
	StrictProvenance bool   `json:"strictProvenance,omitempty"`
}

func (r UpdateRequest) withDefaults(env Environment) UpdateRequest {
	if r.MinVersion == "" {
		r.MinVersion = DefaultMinVersion
	}
	r.Mode = ParseMode(string(r.Mode))
	if r.PackageOrAppID == "" {
		r.PackageOrAppID = env.AppID
	}
	return r
}

// DecisionReport is the result of one gate evaluation
type DecisionReport struct {
	Action          Action          `json:"action"`
	Platform        Platform        `json:"platform"`
	CurrentVersion  string          `json:"currentVersion,omitempty"`
	MinVersion      string          `json:"minVersion,omitempty"`
	InstallerSource InstallerSource `json:"installerSource,omitempty"`
	Reason          Reason          `json:"reason,omitempty"`
	StoreURL        string          `json:"storeUrl,omitempty"`
}

// ToMap renders the report as the key/value map host shells receive.
// Optional fields are omitted when empty.
func (r DecisionReport) ToMap() map[string]any {
	m := map[string]any{
		"action":   string(r.Action),
		"platform": string(r.Platform),
	}
	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	set("currentVersion", r.CurrentVersion)
	set("minVersion", r.MinVersion)
	set("installerSource", string(r.InstallerSource))
	set("reason", string(r.Reason))
	set("storeUrl", r.StoreURL)
	return m
}
