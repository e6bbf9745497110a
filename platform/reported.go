package platform

import (
	"context"
	"errors"

	"github.com/liamcoop/updategate/gate"
)

// Facts are host facts reported by a device instead of looked up locally
type Facts struct {
	Attached       *bool  `json:"attached,omitempty"` // defaults to true
	AppID          string `json:"appId,omitempty"`
	CurrentVersion string `json:"currentVersion,omitempty"`

	// InstallerSource wins over InstallerPackage when both are set
	InstallerSource  gate.InstallerSource `json:"installerSource,omitempty"`
	InstallerPackage *string              `json:"installerPackage,omitempty"`

	UpdateAvailable bool   `json:"updateAvailable,omitempty"`
	UpdateAllowed   bool   `json:"updateAllowed,omitempty"`
	QueryError      string `json:"queryError,omitempty"`
	StartError      string `json:"startError,omitempty"`
	CompleteError   string `json:"completeError,omitempty"`
}

func (f Facts) attached() bool {
	return f.Attached == nil || *f.Attached
}

func (f Facts) installerSource() gate.InstallerSource {
	if f.InstallerSource != "" {
		return f.InstallerSource
	}
	if f.InstallerPackage != nil {
		return ClassifyInstaller(*f.InstallerPackage, nil)
	}
	return gate.InstallerUnknown
}

// ReportedUpdater answers the in-place update calls from reported facts.
// Every call succeeds unless the matching error is reported.
type ReportedUpdater struct {
	Facts Facts
}

func (u *ReportedUpdater) QueryAvailability(_ context.Context, _ gate.Mode) *gate.AvailabilityFuture {
	var err error
	if u.Facts.QueryError != "" {
		err = errors.New(u.Facts.QueryError)
	}
	return gate.ResolvedAvailability(gate.Availability{
		Available: u.Facts.UpdateAvailable,
		Allowed:   u.Facts.UpdateAllowed,
	}, err)
}

func (u *ReportedUpdater) StartUpdateFlow(context.Context, gate.Mode) error {
	if u.Facts.StartError != "" {
		return errors.New(u.Facts.StartError)
	}
	return nil
}

func (u *ReportedUpdater) CompleteUpdate(context.Context) error {
	if u.Facts.CompleteError != "" {
		return errors.New(u.Facts.CompleteError)
	}
	return nil
}
