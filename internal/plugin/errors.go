package plugin

import (
	"errors"
	"fmt"
)

// Plugin model errors.
var (
	// ErrManifestNotFound is returned when plugin.xml does not exist.
	ErrManifestNotFound = errors.New("plugin.xml not found")

	// ErrMalformedManifest is matched by ManifestErrors caused by broken markup.
	ErrMalformedManifest = errors.New("malformed plugin.xml")

	// ErrMissingID is returned when the manifest root has no id attribute.
	ErrMissingID = errors.New("plugin.xml: id is required")

	// ErrNoPluginDirectory is returned when a plugin's folder is absent
	// from the project where it is required.
	ErrNoPluginDirectory = errors.New("plugin folder does not exist")
)

// ManifestError describes a plugin.xml that could not be turned into a
// Manifest. Malformed is set when the file was read but its markup is
// broken, so callers can report a broken plugin rather than an I/O failure.
type ManifestError struct {
	Path      string
	Malformed bool
	Err       error
}

// Error implements the error interface.
func (e *ManifestError) Error() string {
	if e.Malformed {
		return fmt.Sprintf("malformed manifest %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ManifestError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformedManifest for malformed manifests.
func (e *ManifestError) Is(target error) bool {
	return target == ErrMalformedManifest && e.Malformed
}

// IsMalformed returns true if err stems from broken plugin.xml markup.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedManifest)
}
