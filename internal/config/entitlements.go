package config

import "context"

// StaticEntitlements answers the tier gate from configuration alone.
type StaticEntitlements struct {
	ScanEnabled bool
}

// CanScan reports whether scanning is enabled for every user.
func (e StaticEntitlements) CanScan(_ context.Context, _ string) (bool, error) {
	return e.ScanEnabled, nil
}
