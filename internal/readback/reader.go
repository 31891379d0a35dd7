// Package readback re-opens a Chapter 10 file this repository just
// wrote and streams its packets back out, adapted from the teacher's
// blockSource/Reader iterator architecture but rewritten for the
// little-endian 24-byte header spec.md defines.
package readback

import (
	"errors"
	"io"
	"os"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/packet"
)

const (
	minBlockSize      = 1 << 20
	defaultResyncSpan = 64 * 1024
)

var ErrNoSync = errors.New("readback: sync pattern 0xEB25 not found")

type blockSource struct {
	file      *os.File
	size      int64
	blockSize int
	buf       []byte
	bufStart  int64
	bufLen    int
}

func newBlockSource(f *os.File, size int64) *blockSource {
	return &blockSource{file: f, size: size, blockSize: minBlockSize}
}

func (bs *blockSource) Close() error {
	if bs.file == nil {
		return nil
	}
	err := bs.file.Close()
	bs.file = nil
	return err
}

func (bs *blockSource) ensure(offset int64, length int) error {
	if offset >= bs.bufStart && offset+int64(length) <= bs.bufStart+int64(bs.bufLen) {
		return nil
	}
	if offset >= bs.size {
		bs.bufLen = 0
		return io.EOF
	}
	need := bs.blockSize
	if length > need {
		need = length
	}
	if len(bs.buf) < need {
		bs.buf = make([]byte, need)
	}
	remain := bs.size - offset
	if int64(need) > remain {
		need = int(remain)
	}
	n, err := bs.file.ReadAt(bs.buf[:need], offset)
	if err != nil && !errors.Is(err, io.EOF) {
		bs.bufLen = 0
		return err
	}
	bs.bufStart = offset
	bs.bufLen = n
	if n == 0 {
		return io.EOF
	}
	return nil
}

func (bs *blockSource) slice(offset int64, length int) ([]byte, error) {
	if offset < 0 || offset >= bs.size {
		return nil, io.EOF
	}
	if err := bs.ensure(offset, length); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	start := int(offset - bs.bufStart)
	if start < 0 || start >= bs.bufLen {
		return nil, io.ErrUnexpectedEOF
	}
	end := start + length
	if end > bs.bufLen {
		return bs.buf[start:bs.bufLen], io.ErrUnexpectedEOF
	}
	return bs.buf[start:end], nil
}

// Reader iterates sequentially across a Chapter 10 file, resyncing on
// bad sync patterns rather than aborting, so the validator can still
// report every packet that does parse.
type Reader struct {
	source *blockSource
	size   int64
	offset int64
}

// Open opens path for read-only sequential iteration.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{source: newBlockSource(f, info.Size()), size: info.Size()}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.source.Close()
}

// Next returns the next packet, resyncing forward on a bad sync
// pattern. It returns io.EOF at end of file.
func (r *Reader) Next() (PacketView, error) {
	for {
		if r.offset >= r.size {
			return PacketView{}, io.EOF
		}
		if r.offset+packet.HeaderSize > r.size {
			return PacketView{}, io.ErrUnexpectedEOF
		}
		headerBuf, err := r.source.slice(r.offset, packet.HeaderSize)
		if err != nil {
			return PacketView{}, err
		}
		h, syncOK, checksumOK := packet.DecodeHeaderLoose(headerBuf)
		if !syncOK {
			if err := r.resync(); err != nil {
				return PacketView{}, err
			}
			continue
		}

		totalLen := int64(h.PacketLength)
		if totalLen < packet.HeaderSize || r.offset+totalLen > r.size {
			if err := r.resync(); err != nil {
				return PacketView{}, err
			}
			continue
		}

		payloadLen := int(h.DataLength)
		var payload []byte
		if payloadLen > 0 {
			payload, err = r.source.slice(r.offset+packet.HeaderSize, payloadLen)
			if err != nil {
				return PacketView{}, err
			}
			payload = append([]byte(nil), payload...)
		}

		view := PacketView{Offset: r.offset, Header: h, SyncOK: syncOK, ChecksumOK: checksumOK, Payload: payload}
		r.offset += totalLen
		return view, nil
	}
}

func (r *Reader) resync() error {
	start := r.offset + 1
	limit := start + defaultResyncSpan
	if limit > r.size {
		limit = r.size
	}
	window := limit - start
	if window < 2 {
		r.offset = r.size
		return io.EOF
	}
	buf, err := r.source.slice(start, int(window))
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == 0x25 && buf[i+1] == 0xEB { // little-endian 0xEB25
			r.offset = start + int64(i)
			return nil
		}
	}
	r.offset = limit
	if r.offset >= r.size {
		return io.EOF
	}
	return ErrNoSync
}

// ReadAll drains the reader into a FileIndex, stopping at the first
// unrecoverable error (anything other than io.EOF).
func ReadAll(r *Reader) (FileIndex, error) {
	var idx FileIndex
	for {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return idx, nil
		}
		if err != nil {
			return idx, err
		}
		idx.Packets = append(idx.Packets, v)
	}
}
