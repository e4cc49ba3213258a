// Package platform identifies the Jetson module the process runs on.
package platform

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrPlatformUnavailable is returned when no hardware identity can be read.
var ErrPlatformUnavailable = errors.New("platform: hardware identity unavailable")

// DefaultModelPaths are the device-tree model files checked in order.
var DefaultModelPaths = []string{
	"/proc/device-tree/model",
	"/sys/firmware/devicetree/base/model",
}

// Identifier reports the human-readable board or module name.
type Identifier interface {
	Identify() (string, error)
}

// ModelFile reads the name from the first readable, non-empty device-tree
// model file.
type ModelFile struct {
	Paths []string
}

// Identify implements Identifier.
func (m ModelFile) Identify() (string, error) {
	paths := m.Paths
	if len(paths) == 0 {
		paths = DefaultModelPaths
	}
	var errs []error
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if name := cleanModel(data); name != "" {
			return name, nil
		}
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("%w: %w", ErrPlatformUnavailable, errors.Join(errs...))
	}
	return "", ErrPlatformUnavailable
}

// Static is a fixed platform name, used for configuration overrides.
type Static string

// Identify implements Identifier.
func (s Static) Identify() (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrPlatformUnavailable
	}
	return string(s), nil
}

// Detect returns an Identifier honouring override before the model files.
func Detect(override string, paths []string) Identifier {
	if override != "" {
		return Static(override)
	}
	return ModelFile{Paths: paths}
}

func cleanModel(data []byte) string {
	data = bytes.TrimRight(data, "\x00")
	return strings.TrimSpace(string(data))
}
