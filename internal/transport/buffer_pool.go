package transport

import (
	"sync"

	"github.com/xfalcon/localresolve/internal/protocol"
)

// bufferPool holds receive buffers so concurrent resolve calls do not each
// allocate a MaxMessageSize slice per datagram.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, protocol.MaxMessageSize)
		return &buf
	},
}

// GetBuffer returns a receive buffer of protocol.MaxMessageSize bytes.
// Return it with PutBuffer once the datagram has been copied out.
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer returns buf to the pool.
func PutBuffer(buf *[]byte) {
	if buf == nil || cap(*buf) < protocol.MaxMessageSize {
		return
	}
	*buf = (*buf)[:protocol.MaxMessageSize]
	bufferPool.Put(buf)
}
