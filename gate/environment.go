package gate

import (
	"context"
	"reflect"

	"github.com/liamcoop/updategate/storelink"
)

// Updater is the platform's in-place update service
type Updater interface {
	// QueryAvailability asks whether an update is available and whether mode
	// is allowed for it. The answer arrives asynchronously.
	QueryAvailability(ctx context.Context, mode Mode) *AvailabilityFuture

	// StartUpdateFlow requests the in-place update flow. Success means the
	// flow was started, not that the update completed.
	StartUpdateFlow(ctx context.Context, mode Mode) error

	// CompleteUpdate finalizes a downloaded flexible update
	CompleteUpdate(ctx context.Context) error
}

// Environment carries the host facts and collaborators for one call.
// Platform adapters build a fresh Environment per invocation.
type Environment struct {
	Platform     Platform
	Capabilities Capabilities

	// Attached is false when the host has no execution context (activity,
	// window) to act on
	Attached bool

	// AppID is the running app's own package or store identifier
	AppID string

	// CurrentVersion is the installed version; "" reads as DefaultMinVersion
	CurrentVersion string

	// InstallerSource is ignored unless Capabilities.InstallerSource is set
	InstallerSource InstallerSource

	Store   storelink.Builder
	Opener  storelink.Opener
	Updater Updater // ignored unless Capabilities.InPlaceUpdate is set
}

func (env Environment) currentVersion() string {
	if env.CurrentVersion == "" {
		return DefaultMinVersion
	}
	return env.CurrentVersion
}

// installerSource returns the observed source, "" when unobservable
func (env Environment) installerSource() InstallerSource {
	if !env.Capabilities.InstallerSource {
		return ""
	}
	if env.InstallerSource == "" {
		return InstallerUnknown
	}
	return env.InstallerSource
}

// updater returns nil without the capability, and for a nil Updater even
// when it is wrapped in a non-nil interface
func (env Environment) updater() Updater {
	if !env.Capabilities.InPlaceUpdate || isNil(env.Updater) {
		return nil
	}
	return env.Updater
}

func isNil(u Updater) bool {
	if u == nil {
		return true
	}
	v := reflect.ValueOf(u)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (env Environment) storeURL(id string) string {
	if env.Store == nil {
		return ""
	}
	return env.Store.StoreURL(id)
}
