package provenance

import (
	"strings"

	"golang.org/x/sys/unix"
)

// Source fetches the download-origin URL recorded for a file, if any.
// Implementations must treat every failure as "no provenance"; the
// classification pipeline falls through to type matching in that case.
type Source interface {
	OriginURL(path string) (string, bool)
}

// Func adapts a plain function to the Source interface.
type Func func(path string) (string, bool)

func (f Func) OriginURL(path string) (string, bool) { return f(path) }

// originAttrs are the extended attributes browsers and download tools write,
// checked in order. The first non-empty value wins.
var originAttrs = []string{
	"user.xdg.origin.url",
	"user.xdg.referrer.url",
}

type xattrSource struct{}

// NewXattrSource returns a Source backed by OS extended attributes.
func NewXattrSource() Source {
	return xattrSource{}
}

func (xattrSource) OriginURL(path string) (string, bool) {
	for _, attr := range originAttrs {
		value, ok := readAttr(path, attr)
		if !ok {
			continue
		}
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}

func readAttr(path, attr string) (string, bool) {
	size, err := unix.Getxattr(path, attr, nil)
	if err != nil || size <= 0 {
		return "", false
	}
	buf := make([]byte, size)
	n, err := unix.Getxattr(path, attr, buf)
	if err != nil || n <= 0 {
		return "", false
	}
	// Some writers NUL-terminate the value.
	return strings.TrimRight(string(buf[:n]), "\x00"), true
}
