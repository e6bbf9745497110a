package platform

import (
	"fmt"
	"regexp"
)

var tagPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateDescriptor checks a descriptor before it is registered.
// Returns an error if validation fails, nil if the descriptor is valid.
func ValidateDescriptor(d Descriptor) error {
	tag := string(d.Tag)
	if len(tag) == 0 {
		return fmt.Errorf("platform tag cannot be empty")
	}
	if len(tag) > 32 {
		return fmt.Errorf("platform tag length %d exceeds maximum of 32 characters", len(tag))
	}
	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("platform tag %q must match pattern %s", tag, tagPattern.String())
	}

	if d.Store == nil {
		return fmt.Errorf("platform %q has no store link builder", tag)
	}

	// the in-place branch is only reached from a first-party install
	if d.Capabilities.InPlaceUpdate && !d.Capabilities.InstallerSource {
		return fmt.Errorf("platform %q supports in-place update but cannot observe installer source", tag)
	}

	return nil
}
