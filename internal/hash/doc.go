// Package hash provides the integrity checksum used by persisted statistics
// snapshots.
//
// Snapshots store the CRC32-Castagnoli (CRC32C) checksum of their uncompressed
// payload in the header. Decoding recomputes it after decompression:
//
//	if err := hash.Verify(raw, header.Checksum); err != nil {
//	    return nil, err // wraps ErrChecksumMismatch
//	}
//
// github.com/klauspost/crc32 is a drop-in for hash/crc32 with faster
// Castagnoli kernels on amd64 and arm64.
package hash
