package pipedream

import "strings"

// Version hints for resolvePath.
const (
	VersionV1  = "v1"
	VersionV2  = "v2"
	VersionRaw = "raw"
)

// resolvePath maps a logical resource path to a concrete request path.
// An explicit version segment in the path always wins over the hint, a
// "raw" hint leaves the path untouched, and anything unrecognized falls
// back to /v1. Pure function, no I/O.
func resolvePath(logical, hint string) string {
	if !strings.HasPrefix(logical, "/") {
		logical = "/" + logical
	}
	if strings.HasPrefix(logical, "/v1/") || strings.HasPrefix(logical, "/v2/") || logical == "/v1" || logical == "/v2" {
		return logical
	}
	switch hint {
	case VersionRaw:
		return logical
	case VersionV2:
		return "/v2" + logical
	default:
		return "/v1" + logical
	}
}
