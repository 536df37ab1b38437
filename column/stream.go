package column

import "io"
import "unsafe"

import "github.com/bnclabs/colstore/api"
import "github.com/bnclabs/colstore/lib"

// Stream positions a read/write cursor over a fixed window of
// off-heap bytes, implementing io.Reader, io.Writer and io.Seeker.
// The window is not grown: writes that do not fit fail with
// api.ErrorInsufficientSpace. Seeking relative to io.SeekEnd uses the
// conventional length+offset interpretation.
type Stream struct {
	base   unsafe.Pointer
	length int64
	offset int64
}

// NewStream construct a stream over `length` bytes starting at base.
// The caller keeps ownership of the memory, which must stay valid for
// the stream's lifetime.
func NewStream(base unsafe.Pointer, length int64) (*Stream, error) {
	if base == nil {
		return nil, api.ErrorNullArgument
	} else if length < 0 {
		return nil, api.ErrorOutofRange
	}
	return &Stream{base: base, length: length}, nil
}

// Length of the stream's window.
func (stream *Stream) Length() int64 {
	return stream.length
}

// Read implement io.Reader{} interface.
func (stream *Stream) Read(p []byte) (int, error) {
	if stream.offset >= stream.length {
		return 0, io.EOF
	}
	n := int64(len(p))
	if remain := stream.length - stream.offset; n > remain {
		n = remain
	}
	if n == 0 {
		return 0, nil
	}
	src := unsafe.Pointer(uintptr(stream.base) + uintptr(stream.offset))
	lib.Memcpy(unsafe.Pointer(&p[0]), src, int(n))
	stream.offset += n
	return int(n), nil
}

// Write implement io.Writer{} interface. Fails without a partial
// write when p does not fit in the remaining window.
func (stream *Stream) Write(p []byte) (int, error) {
	n := int64(len(p))
	if n > (stream.length - stream.offset) {
		return 0, api.ErrorInsufficientSpace
	}
	if n == 0 {
		return 0, nil
	}
	dst := unsafe.Pointer(uintptr(stream.base) + uintptr(stream.offset))
	lib.Memcpy(dst, unsafe.Pointer(&p[0]), int(n))
	stream.offset += n
	return int(n), nil
}

// Seek implement io.Seeker{} interface.
func (stream *Stream) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = stream.offset + offset
	case io.SeekEnd:
		next = stream.length + offset
	default:
		return 0, api.ErrorOutofRange
	}
	if next < 0 || next > stream.length {
		return 0, api.ErrorOutofRange
	}
	stream.offset = next
	return next, nil
}
