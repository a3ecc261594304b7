package naming

import "time"

// stampLayout is the compact UTC form used in object filenames.
const stampLayout = "20060102-150405"

// Stamp renders t as a compact UTC timestamp suitable for filenames,
// e.g. "20250101-000000".
func Stamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}
