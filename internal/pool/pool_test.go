package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIndexSlice_ReturnsZeroed(t *testing.T) {
	s, release := GetIndexSlice(8)
	require.Len(t, s, 8)
	for i := range s {
		s[i] = i + 1
	}
	release()

	// A recycled slice must come back zeroed.
	s2, release2 := GetIndexSlice(8)
	defer release2()
	require.Len(t, s2, 8)
	for _, v := range s2 {
		require.Zero(t, v)
	}
}

func TestGetIndexSlice_Grows(t *testing.T) {
	s, release := GetIndexSlice(4)
	release()

	big, releaseBig := GetIndexSlice(1024)
	defer releaseBig()
	require.Len(t, big, 1024)
	_ = s
}

func TestByteBuffer_Basics(t *testing.T) {
	bb := NewByteBuffer(16)
	require.Zero(t, bb.Len())

	bb.MustWrite([]byte("abc"))
	require.NoError(t, bb.WriteByte('d'))
	require.Equal(t, 4, bb.Len())
	require.Equal(t, []byte("abcd"), bb.Bytes())

	bb.Reset()
	require.Zero(t, bb.Len())
}

func TestBlobBufferPool_ReturnsEmptyBuffer(t *testing.T) {
	bb := GetBlobBuffer()
	bb.MustWrite([]byte("leftover"))
	PutBlobBuffer(bb)

	bb2 := GetBlobBuffer()
	defer PutBlobBuffer(bb2)
	require.Zero(t, bb2.Len())
}

func TestBlobBufferPool_DropsOversized(t *testing.T) {
	bb := GetBlobBuffer()
	bb.MustWrite(make([]byte, BlobBufferMaxThreshold+1))
	// Must not panic; the oversized buffer is simply dropped.
	PutBlobBuffer(bb)
}
