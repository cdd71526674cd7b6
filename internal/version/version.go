package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// Version is the current version of the marketdata tool.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-marketdata/internal/version.Version=1.2.3"
// The value "main" indicates a development build.
var Version = "main"

// GetVersion returns the current version of the tool.
func GetVersion() string {
	return Version
}

// CheckCompatibility reports whether files written by writerVersion can be
// read by readerVersion.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - A reader may not be older than the writer's minor version
//
// Examples:
//   - Writer 1.2.0, Reader 1.2.5 -> OK
//   - Writer 1.2.0, Reader 1.4.0 -> OK
//   - Writer 1.4.0, Reader 1.2.0 -> ERROR (reader too old)
//   - Writer 2.0.0, Reader 1.9.0 -> ERROR (major differs)
func CheckCompatibility(writerVersion, readerVersion string) error {
	writerVersion = strings.TrimPrefix(writerVersion, "v")
	readerVersion = strings.TrimPrefix(readerVersion, "v")

	if writerVersion == "main" || readerVersion == "main" {
		return nil
	}

	writer, err := semver.NewVersion(writerVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid writer version '%s'", writerVersion)
	}

	reader, err := semver.NewVersion(readerVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid reader version '%s'", readerVersion)
	}

	if writer.Major() != reader.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: written by %d.x.x but this is %d.x.x",
			writer.Major(), reader.Major())
	}

	if reader.Minor() < writer.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "written by %d.%d.x, upgrade to read it (this is %s)",
			writer.Major(), writer.Minor(), reader.Original())
	}

	return nil
}
