// Package sysmem reports total system memory so the pipeline can log how
// its window size relates to available RAM.
//
// Detection is platform-specific; unsupported platforms fall back to a
// conservative default.
package sysmem

// DefaultTotalBytes is the fallback (4 GiB) used when platform-specific
// detection fails or is unsupported.
const DefaultTotalBytes uint64 = 4 * 1024 * 1024 * 1024

// Info describes detected system memory.
type Info struct {
	// TotalBytes is the total system memory in bytes.
	TotalBytes uint64

	// Reliable is false when TotalBytes is the fallback default rather
	// than a platform-reported value.
	Reliable bool
}

// Detect returns the total system memory, falling back to
// DefaultTotalBytes when detection is unavailable.
func Detect() Info {
	total, ok := totalSystemMemory()
	if !ok || total == 0 {
		return Info{TotalBytes: DefaultTotalBytes, Reliable: false}
	}
	return Info{TotalBytes: total, Reliable: true}
}

// TotalBytes returns just the detected (or fallback) memory value.
func TotalBytes() uint64 {
	return Detect().TotalBytes
}
