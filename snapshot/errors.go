package snapshot

import "errors"

var (
	// ErrBadMagic is returned when the input is not a snapshot.
	ErrBadMagic = errors.New("snapshot: bad magic")

	// ErrUnsupportedVersion is returned for snapshots written by a newer format version.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")

	// ErrCorrupt is returned when sizes or lengths in a snapshot are inconsistent.
	ErrCorrupt = errors.New("snapshot: corrupt data")

	// ErrUnknownCompression is returned for an unknown compression type.
	ErrUnknownCompression = errors.New("snapshot: unknown compression")
)
