package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ndbin/format"
)

// snapshotPayload fabricates bytes shaped like a real section payload:
// a run of small varint deltas followed by raw float-ish noise.
func snapshotPayload(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	out := make([]byte, n)
	for i := range out {
		if i < n/2 {
			out[i] = byte(i % 7) // compressible offset-table half
		} else {
			out[i] = byte(rng.Intn(256))
		}
	}

	return out
}

func TestGetCodec_AllBuiltins(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		codec, err := GetCodec(ct)
		require.NoError(t, err, ct.String())
		require.NotNil(t, codec)
	}
}

func TestGetCodec_Unknown(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0xEE))
	require.Error(t, err)
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	payload := snapshotPayload(8192)
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.True(t, bytes.Equal(payload, decompressed))
		})
	}
}

func TestAllCodecs_EmptyInput(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestZstdCompressor_CorruptedInput(t *testing.T) {
	codec := NewZstdCompressor()
	_, err := codec.Decompress([]byte{0xde, 0xad, 0xbe, 0xef})
	require.Error(t, err)
}

func TestLZ4Compressor_CorruptedInput(t *testing.T) {
	codec := NewLZ4Compressor()

	_, err := codec.Decompress([]byte{0x01})
	require.Error(t, err) // truncated length prefix

	compressed, err := codec.Compress(snapshotPayload(1024))
	require.NoError(t, err)
	compressed[0]++ // declared size no longer matches the block
	_, err = codec.Decompress(compressed)
	require.Error(t, err)
}

func TestLZ4Compressor_IncompressibleInput(t *testing.T) {
	// Pure noise falls back to the stored form and must still round-trip.
	rng := rand.New(rand.NewSource(7))
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(rng.Intn(256))
	}

	codec := NewLZ4Compressor()
	compressed, err := codec.Compress(payload)
	require.NoError(t, err)

	decompressed, err := codec.Decompress(compressed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(payload, decompressed))
}

func TestCompressionType_String(t *testing.T) {
	require.Equal(t, "None", format.CompressionNone.String())
	require.Equal(t, "Zstd", format.CompressionZstd.String())
	require.Equal(t, "S2", format.CompressionS2.String())
	require.Equal(t, "LZ4", format.CompressionLZ4.String())
	require.Equal(t, "Unknown", format.CompressionType(0xEE).String())
}
