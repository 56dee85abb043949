// Package machotest builds minimal synthetic Mach-O images for tests.
// The images carry a single LC_SEGMENT_64 load command whose sections
// declare arbitrary segment names, which is all the section extractor
// looks at.
package machotest

import "encoding/binary"

const (
	magic64     = 0xfeedfacf
	mhExecute   = 2
	lcSegment64 = 0x19

	headerSize  = 32
	segCmdSize  = 72
	sectionSize = 80
)

// CPU types for built images. Fat slices must not repeat a type;
// parsers reject universal binaries with duplicate architectures.
const (
	CPUArm64 uint32 = 0x0100000c
	CPUAmd64 uint32 = 0x01000007
)

// Spec describes one section to declare in a built image.
// If Data is set it is written at Offset and its length becomes the
// declared size; otherwise Size is declared as-is (use Offset 0 for a
// zero-fill section, Size 0 for an empty one).
type Spec struct {
	Segment string
	Name    string
	Offset  uint32
	Size    uint64
	Data    []byte
}

// Thin builds a single-architecture arm64 image of fileSize bytes
func Thin(sections []Spec, fileSize int) []byte {
	return ThinCPU(CPUArm64, sections, fileSize)
}

// ThinCPU builds a 64-bit image for the given cpu type. Use it when
// wrapping several slices into a fat image, which needs every slice
// on a different architecture.
func ThinCPU(cpu uint32, sections []Spec, fileSize int) []byte {
	le := binary.LittleEndian
	sizeofcmds := segCmdSize + sectionSize*len(sections)
	buf := make([]byte, fileSize)

	// mach_header_64
	le.PutUint32(buf[0:], magic64)
	le.PutUint32(buf[4:], cpu)
	le.PutUint32(buf[8:], 0)
	le.PutUint32(buf[12:], mhExecute)
	le.PutUint32(buf[16:], 1)
	le.PutUint32(buf[20:], uint32(sizeofcmds))
	le.PutUint32(buf[24:], 0)
	le.PutUint32(buf[28:], 0)

	// segment_command_64
	off := headerSize
	le.PutUint32(buf[off:], lcSegment64)
	le.PutUint32(buf[off+4:], uint32(sizeofcmds))
	copy(buf[off+8:off+24], "__TEXT")
	le.PutUint64(buf[off+32:], uint64(fileSize)) // vmsize
	le.PutUint64(buf[off+48:], uint64(fileSize)) // filesize
	le.PutUint32(buf[off+56:], 7)                // maxprot
	le.PutUint32(buf[off+60:], 5)                // initprot
	le.PutUint32(buf[off+64:], uint32(len(sections)))
	off += segCmdSize

	// section_64 entries
	for _, s := range sections {
		size := s.Size
		if s.Data != nil {
			size = uint64(len(s.Data))
		}
		copy(buf[off:off+16], s.Name)
		copy(buf[off+16:off+32], s.Segment)
		le.PutUint64(buf[off+40:], size)
		le.PutUint32(buf[off+48:], s.Offset)
		if s.Data != nil && s.Offset != 0 {
			copy(buf[s.Offset:], s.Data)
		}
		off += sectionSize
	}

	return buf
}

// Fat wraps the given thin images into a universal binary. Each
// fat_arch record takes its cpu type from the slice's own header, so
// the slices must already carry distinct architectures.
func Fat(slices ...[]byte) []byte {
	be := binary.BigEndian
	const sliceAlign = 1 << 6

	offsets := make([]uint32, len(slices))
	cur := 8 + 20*len(slices)
	for i := range slices {
		cur = (cur + sliceAlign - 1) &^ (sliceAlign - 1)
		offsets[i] = uint32(cur)
		cur += len(slices[i])
	}

	buf := make([]byte, cur)
	be.PutUint32(buf[0:], 0xcafebabe)
	be.PutUint32(buf[4:], uint32(len(slices)))
	for i, data := range slices {
		base := 8 + 20*i
		be.PutUint32(buf[base:], binary.LittleEndian.Uint32(data[4:8]))
		be.PutUint32(buf[base+4:], 0)
		be.PutUint32(buf[base+8:], offsets[i])
		be.PutUint32(buf[base+12:], uint32(len(data)))
		be.PutUint32(buf[base+16:], 6) // align = 2^6
		copy(buf[offsets[i]:], data)
	}
	return buf
}

// Offsets used by SimpleBinary
const (
	TextOffset = 0x200
	SigOffset  = 0x280
	simpleSize = 0x300
)

// SimpleBinary builds an image with one code section, one zero-fill
// section, and one signature-segment section holding sig. Flipping
// bytes in sig between two builds models a re-signed binary.
func SimpleBinary(code, sig []byte) []byte {
	return Thin([]Spec{
		{Segment: "__TEXT", Name: "__text", Offset: TextOffset, Data: code},
		{Segment: "__DATA", Name: "__bss", Offset: 0, Size: 64},
		{Segment: "__LINKEDIT", Name: "__sigblob", Offset: SigOffset, Data: sig},
	}, simpleSize)
}
