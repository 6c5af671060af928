package prefs

import (
	"errors"
	"io"
)

// BlockDevice is erasable, block-written storage.
// Its method set matches TinyGo's machine.Flash, so the flash data area
// can be passed in directly.
type BlockDevice interface {
	io.ReaderAt
	io.WriterAt

	// Size returns the number of bytes in the device.
	Size() int64

	// WriteBlockSize is the write granularity; WriteAt lengths and
	// offsets must be multiples of it.
	WriteBlockSize() int64

	// EraseBlockSize is the erase granularity.
	EraseBlockSize() int64

	// EraseBlocks erases length blocks starting at block index start.
	// Erased bytes read back as 0xFF.
	EraseBlocks(start, length int64) error
}

var (
	ErrOutOfRange = errors.New("block device access out of range")
	ErrUnaligned  = errors.New("block device write not aligned")
	ErrNotErased  = errors.New("block device write to unerased byte")
)

// MemoryDevice emulates NOR flash in RAM: erase sets bytes to 0xFF and
// writes may only clear bits.
type MemoryDevice struct {
	data       []byte
	writeBlock int64
	eraseBlock int64

	// Counters for tests
	Erases int
	Writes int
}

// NewMemoryDevice creates an erased device of eraseBlocks blocks
func NewMemoryDevice(eraseBlocks int, eraseBlockSize, writeBlockSize int64) *MemoryDevice {
	d := &MemoryDevice{
		data:       make([]byte, int64(eraseBlocks)*eraseBlockSize),
		writeBlock: writeBlockSize,
		eraseBlock: eraseBlockSize,
	}
	for i := range d.data {
		d.data[i] = 0xFF
	}
	return d
}

// ReadAt implements io.ReaderAt
func (d *MemoryDevice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(d.data)) {
		return 0, ErrOutOfRange
	}
	return copy(p, d.data[off:]), nil
}

// WriteAt implements io.WriterAt with flash semantics
func (d *MemoryDevice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(d.data)) {
		return 0, ErrOutOfRange
	}
	if off%d.writeBlock != 0 || int64(len(p))%d.writeBlock != 0 {
		return 0, ErrUnaligned
	}
	for i, b := range p {
		cur := d.data[off+int64(i)]
		if cur&b != b {
			return i, ErrNotErased
		}
		d.data[off+int64(i)] = b
	}
	d.Writes++
	return len(p), nil
}

// Size implements BlockDevice
func (d *MemoryDevice) Size() int64 {
	return int64(len(d.data))
}

// WriteBlockSize implements BlockDevice
func (d *MemoryDevice) WriteBlockSize() int64 {
	return d.writeBlock
}

// EraseBlockSize implements BlockDevice
func (d *MemoryDevice) EraseBlockSize() int64 {
	return d.eraseBlock
}

// EraseBlocks implements BlockDevice
func (d *MemoryDevice) EraseBlocks(start, length int64) error {
	from := start * d.eraseBlock
	to := (start + length) * d.eraseBlock
	if start < 0 || length < 0 || to > int64(len(d.data)) {
		return ErrOutOfRange
	}
	for i := from; i < to; i++ {
		d.data[i] = 0xFF
	}
	d.Erases++
	return nil
}

// Bytes exposes the raw contents, for corruption tests
func (d *MemoryDevice) Bytes() []byte {
	return d.data
}
