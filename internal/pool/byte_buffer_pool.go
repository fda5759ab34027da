package pool

import "sync"

// BlobBufferDefaultSize is the initial capacity of pooled blob buffers.
// Snapshot payloads are typically tens of kilobytes, so 16KiB avoids most
// growth while keeping idle pool memory modest.
const (
	BlobBufferDefaultSize  = 1024 * 16
	BlobBufferMaxThreshold = 1024 * 128
)

// ByteBuffer is a minimal append-oriented byte buffer used by the blob
// encoder. It exists so encode paths can share pooled backing storage.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given initial capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, capacity)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Len returns the number of bytes written.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Reset empties the buffer, retaining its capacity.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// MustWrite appends data, growing the buffer as needed.
func (bb *ByteBuffer) MustWrite(data []byte) { bb.B = append(bb.B, data...) }

// WriteByte appends a single byte.
func (bb *ByteBuffer) WriteByte(b byte) error {
	bb.B = append(bb.B, b)
	return nil
}

var blobBufferPool = sync.Pool{
	New: func() any { return NewByteBuffer(BlobBufferDefaultSize) },
}

// GetBlobBuffer retrieves an empty ByteBuffer from the pool.
func GetBlobBuffer() *ByteBuffer {
	bb, _ := blobBufferPool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// PutBlobBuffer returns a buffer to the pool. Oversized buffers are dropped
// so a single huge snapshot does not pin memory for the process lifetime.
func PutBlobBuffer(bb *ByteBuffer) {
	if cap(bb.B) > BlobBufferMaxThreshold {
		return
	}
	blobBufferPool.Put(bb)
}
