// Package platform describes host platforms and folds host lookups into
// gate environments.
package platform

import (
	"github.com/liamcoop/updategate/gate"
	"github.com/liamcoop/updategate/storelink"
)

// Descriptor is what the gate needs to know about a host platform
type Descriptor struct {
	Tag          gate.Platform     `json:"tag"`
	Capabilities gate.Capabilities `json:"capabilities"`
	Store        storelink.Builder `json:"-"`
}

// Android observes installer provenance and supports in-place updates
func Android() Descriptor {
	return Descriptor{
		Tag:          gate.PlatformAndroid,
		Capabilities: gate.Capabilities{InstallerSource: true, InPlaceUpdate: true},
		Store:        storelink.PlayStore{},
	}
}

// IOS exposes neither installer provenance nor in-place updates
func IOS() Descriptor {
	return Descriptor{
		Tag:   gate.PlatformIOS,
		Store: storelink.AppStore{},
	}
}

// Environment builds a gate environment for this platform from reported
// facts. Reported environments have no opener.
func (d Descriptor) Environment(f Facts) gate.Environment {
	env := gate.Environment{
		Platform:        d.Tag,
		Capabilities:    d.Capabilities,
		Attached:        f.attached(),
		AppID:           f.AppID,
		CurrentVersion:  f.CurrentVersion,
		InstallerSource: f.installerSource(),
		Store:           d.Store,
	}
	if d.Capabilities.InPlaceUpdate {
		env.Updater = &ReportedUpdater{Facts: f}
	}
	return env
}
