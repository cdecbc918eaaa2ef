package classfile

import (
	"bufio"
	"fmt"
	"io"
)

// byteReader is a thin cursor over a class file's byte stream that tracks
// the current absolute offset, which is reported in read errors.
type byteReader struct {
	r      *bufio.Reader
	offset int
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: bufio.NewReader(r)}
}

func (b *byteReader) Offset() int { return b.offset }

func (b *byteReader) u1() (uint8, error) {
	v, err := b.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("read u1 at offset %d: %w", b.offset, err)
	}
	b.offset++
	return v, nil
}

func (b *byteReader) u2() (uint16, error) {
	hi, err := b.u1()
	if err != nil {
		return 0, err
	}
	lo, err := b.u1()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (b *byteReader) u4() (uint32, error) {
	hi, err := b.u2()
	if err != nil {
		return 0, err
	}
	lo, err := b.u2()
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

func (b *byteReader) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(b.r, buf)
	b.offset += read
	if err != nil {
		return nil, fmt.Errorf("read %d bytes at offset %d: %w", n, b.offset, err)
	}
	return buf, nil
}

func (b *byteReader) skip(n int) error {
	_, err := b.bytes(n)
	return err
}
