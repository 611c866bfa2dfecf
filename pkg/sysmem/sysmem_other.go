//go:build !linux && !darwin

package sysmem

// totalSystemMemory reports no reliable value on unsupported platforms,
// which triggers the default fallback.
func totalSystemMemory() (uint64, bool) {
	return 0, false
}
