package platform

import "github.com/liamcoop/updategate/gate"

// PlayStorePackage is the installer package name of Google Play
const PlayStorePackage = "com.android.vending"

// ClassifyInstaller maps the installer package reported by the package
// manager to an installer source. A lookup error reads as unknown.
func ClassifyInstaller(pkg string, err error) gate.InstallerSource {
	if err != nil {
		return gate.InstallerUnknown
	}

	switch pkg {
	case PlayStorePackage:
		return gate.InstallerPlayStore
	case "", "null":
		return gate.InstallerSideload
	default:
		return gate.InstallerOther
	}
}
