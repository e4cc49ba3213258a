// Package devices maps user-facing device selectors to video node paths.
package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// V4L2Root holds the udev-maintained by-id and by-path symlink directories.
var V4L2Root = "/dev/v4l"

// ResolvePath converts a selector into a device node path. A bare number N
// means /dev/videoN, an absolute path is used as-is, and a stable name such
// as "platform-15c10000.vi-video-index0" is looked up under by-id and
// by-path.
func ResolvePath(selector string) (string, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return "", fmt.Errorf("empty device selector")
	}

	if n, err := strconv.Atoi(selector); err == nil {
		if n < 0 {
			return "", fmt.Errorf("invalid device index %d", n)
		}
		return fmt.Sprintf("/dev/video%d", n), nil
	}

	if filepath.IsAbs(selector) {
		return selector, nil
	}

	for _, dir := range []string{"by-id", "by-path"} {
		p := filepath.Join(V4L2Root, dir, selector)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no stable symlink found for device ID: %s", selector)
}
