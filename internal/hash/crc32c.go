package hash

import (
	"errors"
	"fmt"

	"github.com/klauspost/crc32"
)

// ErrChecksumMismatch is returned by Verify when a payload was corrupted.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// crc32cTable is pre-computed for the CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Verify recomputes the checksum of data and compares it with want.
func Verify(data []byte, want uint32) error {
	if got := CRC32C(data); got != want {
		return fmt.Errorf("%w: got %08x, want %08x", ErrChecksumMismatch, got, want)
	}
	return nil
}
