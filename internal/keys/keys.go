package keys

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// VersionWidth is the fixed length of a content-derived version segment.
// 13 base-36 digits cover the full uint64 range.
const VersionWidth = 13

// Version returns a deterministic lowercase alphanumeric digest of shape.
func Version(shape string) string {
	s := strconv.FormatUint(xxhash.Sum64String(shape), 36)
	if len(s) < VersionWidth {
		s = strings.Repeat("0", VersionWidth-len(s)) + s
	}
	return s
}

// Join prefixes raw with version ("{version}:{raw}"); an empty version leaves raw unchanged.
func Join(version, raw string) string {
	if version == "" {
		return raw
	}
	return version + ":" + raw
}
