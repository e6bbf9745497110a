package platform

import (
	"github.com/liamcoop/updategate/gate"
	"github.com/liamcoop/updategate/internal/logger"
	"github.com/liamcoop/updategate/storelink"
)

// AndroidHost is the Android shell as seen by the gate
type AndroidHost interface {
	storelink.Opener

	// Attached reports whether an activity is available
	Attached() bool
	PackageName() string
	VersionName() (string, error)
	InstallerPackage() (string, error)

	// Updater returns the in-place update service, or nil before it is
	// bound. A typed nil pointer reads as nil.
	Updater() gate.Updater
}

// IOSHost is the iOS shell as seen by the gate
type IOSHost interface {
	storelink.Opener

	// Attached reports whether a key window is available
	Attached() bool
	ShortVersion() (string, error)
}

// AndroidEnvironment folds Android host lookups into a gate environment.
// Lookups that fail degrade instead of failing the call.
func AndroidEnvironment(host AndroidHost) gate.Environment {
	d := Android()
	pkg := host.PackageName()

	installer, err := host.InstallerPackage()
	if err != nil {
		logger.Debug("installer lookup failed", "package", pkg, "error", err)
	}

	return gate.Environment{
		Platform:        d.Tag,
		Capabilities:    d.Capabilities,
		Attached:        host.Attached(),
		AppID:           pkg,
		CurrentVersion:  hostVersion(host.VersionName),
		InstallerSource: ClassifyInstaller(installer, err),
		Store:           d.Store,
		Opener:          host,
		Updater:         host.Updater(),
	}
}

// IOSEnvironment folds iOS host lookups into a gate environment.
// The App Store identifier always comes from the request.
func IOSEnvironment(host IOSHost) gate.Environment {
	d := IOS()
	return gate.Environment{
		Platform:       d.Tag,
		Capabilities:   d.Capabilities,
		Attached:       host.Attached(),
		CurrentVersion: hostVersion(host.ShortVersion),
		Store:          d.Store,
		Opener:         host,
	}
}

// hostVersion never fails
func hostVersion(lookup func() (string, error)) string {
	v, err := lookup()
	if err != nil {
		logger.Debug("version lookup failed", "error", err)
		return gate.DefaultMinVersion
	}
	if v == "" {
		return gate.DefaultMinVersion
	}
	return v
}

