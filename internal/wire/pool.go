package wire

import "sync"

// pooledBufferSize is the fixed capacity of buffers kept in bufferPool.
// It covers most typical MQTT control packets; larger packets still
// allocate a one-off slice that is never returned to the pool.
const pooledBufferSize = 4096

var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, pooledBufferSize)
		return &buf
	},
}

// GetBuffer returns a buffer from the pool.
// If the requested size is larger than the pooled buffer, it allocates a new one.
func GetBuffer(size int) *[]byte {
	if size > pooledBufferSize {
		buf := make([]byte, size)
		return &buf
	}
	return bufferPool.Get().(*[]byte)
}

// PutBuffer returns a buffer to the pool.
// Only pooled buffers (<= pooledBufferSize capacity) should be returned.
func PutBuffer(bufPtr *[]byte) {
	if cap(*bufPtr) != pooledBufferSize {
		return
	}
	bufferPool.Put(bufPtr)
}
