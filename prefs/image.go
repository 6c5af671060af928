package prefs

import (
	"encoding/binary"
	"errors"
)

// Record image layout, little endian:
//
//	0  magic "BRPF"
//	4  version
//	5  entry count
//	6  CRC16 of the entry area
//	8  entries, entrySize bytes each: namespace[16] key[16] value u64
const (
	imageMagic   = "BRPF"
	imageVersion = 1
	headerSize   = 8
	nameSize     = 16
	entrySize    = 2*nameSize + 8

	// MaxNameLen is the longest namespace or key, leaving room for a NUL.
	MaxNameLen = nameSize - 1

	// MaxEntries bounds the image so it fits one 4KiB erase block.
	MaxEntries = 64
)

var errBadImage = errors.New("invalid preferences image")

type entry struct {
	namespace string
	key       string
	value     uint64
}

// imageSize returns the encoded length of n entries
func imageSize(n int) int {
	return headerSize + n*entrySize
}

func encodeImage(entries []entry) []byte {
	buf := make([]byte, imageSize(len(entries)))
	copy(buf[0:4], imageMagic)
	buf[4] = imageVersion
	buf[5] = uint8(len(entries))

	pos := headerSize
	for _, e := range entries {
		copy(buf[pos:pos+nameSize], e.namespace)
		copy(buf[pos+nameSize:pos+2*nameSize], e.key)
		binary.LittleEndian.PutUint64(buf[pos+2*nameSize:], e.value)
		pos += entrySize
	}

	binary.LittleEndian.PutUint16(buf[6:8], CRC16(buf[headerSize:]))
	return buf
}

// decodeHeader validates the header and returns the entry count
func decodeHeader(hdr []byte) (int, error) {
	if len(hdr) < headerSize || string(hdr[0:4]) != imageMagic || hdr[4] != imageVersion {
		return 0, errBadImage
	}
	n := int(hdr[5])
	if n > MaxEntries {
		return 0, errBadImage
	}
	return n, nil
}

func decodeImage(buf []byte) ([]entry, error) {
	n, err := decodeHeader(buf)
	if err != nil {
		return nil, err
	}
	if len(buf) < imageSize(n) {
		return nil, errBadImage
	}
	body := buf[headerSize:imageSize(n)]
	if binary.LittleEndian.Uint16(buf[6:8]) != CRC16(body) {
		return nil, errBadImage
	}

	entries := make([]entry, 0, n)
	for pos := 0; pos < len(body); pos += entrySize {
		entries = append(entries, entry{
			namespace: cString(body[pos : pos+nameSize]),
			key:       cString(body[pos+nameSize : pos+2*nameSize]),
			value:     binary.LittleEndian.Uint64(body[pos+2*nameSize:]),
		})
	}
	return entries, nil
}

// cString trims b at its first NUL
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
