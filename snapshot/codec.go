package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/conductance/internal/conv"
	"github.com/hupe1980/conductance/internal/hash"
)

const (
	magic      uint32 = 0x504e5343 // "CSNP"
	version    uint16 = 1
	headerSize        = 24
	blockSize         = 24
	fixedSize         = 16
)

type options struct {
	compression Compression
}

// Option configures Encode.
type Option func(*options)

// WithCompression selects the payload compression. The default is CompressionZSTD.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// Encode writes s to w.
func Encode(w io.Writer, s *Stats, optFns ...Option) error {
	o := options{compression: CompressionZSTD}
	for _, fn := range optFns {
		fn(&o)
	}

	if err := s.Validate(); err != nil {
		return err
	}
	k := s.K()
	k32, err := conv.IntToUint32(k)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	raw := make([]byte, fixedSize+blockSize*k)
	rawSize, err := conv.IntToUint32(len(raw))
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	binary.LittleEndian.PutUint64(raw[0:], s.Total)
	binary.LittleEndian.PutUint64(raw[8:], s.OriginalTotal)
	for i := range k {
		off := fixedSize + i*blockSize
		binary.LittleEndian.PutUint64(raw[off:], s.CutWeights[i])
		binary.LittleEndian.PutUint64(raw[off+8:], s.Volumes[i])
		binary.LittleEndian.PutUint64(raw[off+16:], s.OriginalVolumes[i])
	}

	payload, used, err := compress(raw, o.compression)
	if err != nil {
		return fmt.Errorf("snapshot: compress: %w", err)
	}

	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], magic)
	binary.LittleEndian.PutUint16(hdr[4:], version)
	hdr[6] = byte(used)
	binary.LittleEndian.PutUint32(hdr[8:], k32)
	binary.LittleEndian.PutUint32(hdr[12:], rawSize)
	binary.LittleEndian.PutUint32(hdr[16:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[20:], hash.CRC32C(payload))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("snapshot: write payload: %w", err)
	}
	return nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Stats, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(hdr[4:]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	c := Compression(hdr[6])
	if c > CompressionZSTD {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}
	k, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(hdr[8:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	rawSize := binary.LittleEndian.Uint32(hdr[12:])
	payloadSize := binary.LittleEndian.Uint32(hdr[16:])
	checksum := binary.LittleEndian.Uint32(hdr[20:])

	if uint64(rawSize) != uint64(fixedSize)+uint64(blockSize)*uint64(k) {
		return nil, fmt.Errorf("%w: raw size %d does not match k=%d", ErrCorrupt, rawSize, k)
	}
	if payloadSize > rawSize || (c == CompressionNone && payloadSize != rawSize) {
		return nil, fmt.Errorf("%w: payload size %d, raw size %d", ErrCorrupt, payloadSize, rawSize)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("snapshot: read payload: %w", err)
	}
	if err := hash.Verify(payload, checksum); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	raw, err := decompress(payload, c, int(rawSize))
	if err != nil {
		return nil, err
	}

	s := &Stats{
		CutWeights:      make([]uint64, k),
		Volumes:         make([]uint64, k),
		OriginalVolumes: make([]uint64, k),
		Total:           binary.LittleEndian.Uint64(raw[0:]),
		OriginalTotal:   binary.LittleEndian.Uint64(raw[8:]),
	}
	for i := range k {
		off := fixedSize + i*blockSize
		s.CutWeights[i] = binary.LittleEndian.Uint64(raw[off:])
		s.Volumes[i] = binary.LittleEndian.Uint64(raw[off+8:])
		s.OriginalVolumes[i] = binary.LittleEndian.Uint64(raw[off+16:])
	}
	return s, nil
}
