package snapshot

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/conductance"
	"github.com/hupe1980/conductance/internal/hash"
	"github.com/hupe1980/conductance/testutil"
)

func TestCapture(t *testing.T) {
	src := testutil.NewStats([]uint64{10, 4, 8, 6}, []uint64{30, 20, 25, 25}, 100)
	src.SetOriginal(0, 35)
	src.SetOriginalTotal(105)

	s := Capture(src)

	assert.Equal(t, 4, s.K())
	assert.Equal(t, []uint64{10, 4, 8, 6}, s.CutWeights)
	assert.Equal(t, []uint64{30, 20, 25, 25}, s.Volumes)
	assert.Equal(t, []uint64{35, 20, 25, 25}, s.OriginalVolumes)
	assert.Equal(t, uint64(100), s.TotalVolume())
	assert.Equal(t, uint64(105), s.OriginalTotalVolume())
	require.NoError(t, s.Validate())

	// later changes to the source do not leak into the snapshot
	src.Set(0, 1, 2)
	assert.Equal(t, uint64(10), s.CutWeight(0))
	assert.Equal(t, uint64(30), s.Volume(0))

	q := conductance.NewQueue()
	require.NoError(t, q.Initialize(s))
	assert.True(t, q.Check(s))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Stats
	}{
		{"LengthMismatch", Stats{CutWeights: []uint64{1}, Volumes: []uint64{1, 2}, OriginalVolumes: []uint64{1}}},
		{"CutAboveVolume", Stats{CutWeights: []uint64{5}, Volumes: []uint64{4}, OriginalVolumes: []uint64{4}, Total: 10, OriginalTotal: 10}},
		{"VolumeAboveTotal", Stats{CutWeights: []uint64{1}, Volumes: []uint64{11}, OriginalVolumes: []uint64{4}, Total: 10, OriginalTotal: 10}},
		{"OriginalCutAboveComplement", Stats{CutWeights: []uint64{3}, Volumes: []uint64{5}, OriginalVolumes: []uint64{8}, Total: 10, OriginalTotal: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.s.Validate())
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	rng := testutil.NewRNG(4711)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			for _, k := range []int{1, 2, 100, 5000} {
				s := Capture(rng.RandomStats(k, uint64(k)*1000))

				var buf bytes.Buffer
				require.NoError(t, Encode(&buf, s, WithCompression(c)))

				got, err := Decode(&buf)
				require.NoError(t, err)
				assert.Equal(t, s, got)
				assert.Zero(t, buf.Len())
			}
		})
	}
}

func TestEncodeCompresses(t *testing.T) {
	const k = 4096
	s := &Stats{
		CutWeights:      make([]uint64, k),
		Volumes:         make([]uint64, k),
		OriginalVolumes: make([]uint64, k),
		Total:           k * 10,
		OriginalTotal:   k * 10,
	}
	for i := range k {
		s.CutWeights[i], s.Volumes[i], s.OriginalVolumes[i] = 3, 10, 10
	}

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, s, WithCompression(c)))

		assert.Less(t, buf.Len(), (fixedSize+blockSize*k)/2, c.String())
		assert.Equal(t, byte(c), buf.Bytes()[6])

		got, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestEncodeRejectsInvalidStats(t *testing.T) {
	s := &Stats{CutWeights: []uint64{5}, Volumes: []uint64{4}, OriginalVolumes: []uint64{4}, Total: 10, OriginalTotal: 10}

	err := Encode(io.Discard, s)
	assert.ErrorIs(t, err, conductance.ErrInvariantViolation)
}

func TestDecodeErrors(t *testing.T) {
	s := Capture(testutil.NewRNG(1).RandomStats(16, 16_000))
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s, WithCompression(CompressionNone)))
	valid := buf.Bytes()

	corrupt := func(fn func(b []byte)) []byte {
		b := bytes.Clone(valid)
		fn(b)
		return b
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"BadMagic", corrupt(func(b []byte) { b[0] ^= 0xff }), ErrBadMagic},
		{"Version", corrupt(func(b []byte) { binary.LittleEndian.PutUint16(b[4:], 9) }), ErrUnsupportedVersion},
		{"BlockCount", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[8:], 17) }), ErrCorrupt},
		{"PayloadSize", corrupt(func(b []byte) { binary.LittleEndian.PutUint32(b[16:], 7) }), ErrCorrupt},
		{"Checksum", corrupt(func(b []byte) { b[len(b)-1] ^= 0x01 }), hash.ErrChecksumMismatch},
		{"Compression", corrupt(func(b []byte) { b[6] = 7 }), ErrUnknownCompression},
		{"TruncatedHeader", valid[:10], io.ErrUnexpectedEOF},
		{"TruncatedPayload", valid[:len(valid)-3], io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrUnknownCompression)
}
