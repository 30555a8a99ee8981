// Package platform adapts the service to the host platform's installed version.
package platform

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/guestlink/guestlink/internal/hooks"
)

// DashboardHookVersion is the first platform version that renders the
// account dashboard hook point.
const DashboardHookVersion = "2.6"

// Canonical returns version in "vMAJOR.MINOR.PATCH" form, or "" if it is
// not a version number.
func Canonical(version string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// AtLeast reports whether version >= min. Unparsable versions are treated
// as current and satisfy any minimum.
func AtLeast(version, min string) bool {
	v := Canonical(version)
	if v == "" {
		return true
	}
	return semver.Compare(v, Canonical(min)) >= 0
}

// HookPointFor returns the dashboard hook point the given platform version
// renders.
func HookPointFor(version string) hooks.DashboardPoint {
	if AtLeast(version, DashboardHookVersion) {
		return hooks.AccountDashboard
	}
	return hooks.BeforeMyAccount
}
