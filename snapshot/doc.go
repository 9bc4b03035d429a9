// Package snapshot freezes the per-block statistics of a partition and
// serializes them.
//
// A Stats value implements conductance.StatsSource, so a captured snapshot can
// serve as the "original" baseline of a later refinement pass or be checked
// against a queue after the partition moved on:
//
//	base := snapshot.Capture(graph)
//	var buf bytes.Buffer
//	if err := snapshot.Encode(&buf, base, snapshot.WithCompression(snapshot.CompressionLZ4)); err != nil {
//	    return err
//	}
//	restored, err := snapshot.Decode(&buf)
//
// # Format
//
// All integers are little-endian.
//
//	magic       uint32  "CSNP"
//	version     uint16
//	compression uint8
//	reserved    uint8
//	k           uint32
//	rawSize     uint32  uncompressed payload size
//	payloadSize uint32  stored payload size
//	checksum    uint32  CRC32-C of the stored payload
//	payload     total uint64, originalTotal uint64, then per block
//	            cutWeight uint64, volume uint64, originalVolume uint64
//
// Payloads that do not shrink by at least 10% are stored uncompressed.
package snapshot
