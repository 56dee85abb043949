package macho

import (
	"encoding/binary"
	"io"
	"os"
)

// Format classifies a file by its leading magic number
type Format int

const (
	// NotExecutable indicates the file is not a recognized executable image
	NotExecutable Format = iota
	// Thin indicates a single-architecture Mach-O image
	Thin
	// Fat indicates a multi-architecture (universal) binary
	Fat
)

// String returns the format name
func (f Format) String() string {
	switch f {
	case Thin:
		return "macho"
	case Fat:
		return "fat"
	default:
		return "not_executable"
	}
}

// Known magic numbers as read little-endian from the first 4 bytes.
// The fat header is stored big-endian on disk, so a little-endian read
// of a fat binary yields the byte-swapped constant.
const (
	Magic32        uint32 = 0xfeedface
	Magic64        uint32 = 0xfeedfacf
	MagicFat       uint32 = 0xcafebabe
	MagicFatCigam  uint32 = 0xbebafeca
)

// Sniffer probes files for executable image magic numbers.
// The magic sets are explicit configuration rather than package globals
// so tests can exercise alternate sets.
type Sniffer struct {
	thin map[uint32]struct{}
	fat  map[uint32]struct{}
}

// NewSniffer creates a sniffer recognizing the standard Mach-O magics
func NewSniffer() *Sniffer {
	return NewSnifferWithMagics(
		[]uint32{Magic32, Magic64},
		[]uint32{MagicFat, MagicFatCigam},
	)
}

// NewSnifferWithMagics creates a sniffer with explicit magic sets
func NewSnifferWithMagics(thin, fat []uint32) *Sniffer {
	s := &Sniffer{
		thin: make(map[uint32]struct{}, len(thin)),
		fat:  make(map[uint32]struct{}, len(fat)),
	}
	for _, m := range thin {
		s.thin[m] = struct{}{}
	}
	for _, m := range fat {
		s.fat[m] = struct{}{}
	}
	return s
}

// Classify reads the first 4 bytes and matches them against the known
// magics. Anything unreadable or too short is NotExecutable; this is the
// normal case for the vast majority of bundle files and never an error.
func (s *Sniffer) Classify(r io.ReaderAt) Format {
	var head [4]byte
	if _, err := r.ReadAt(head[:], 0); err != nil {
		return NotExecutable
	}

	magic := binary.LittleEndian.Uint32(head[:])
	if _, ok := s.thin[magic]; ok {
		return Thin
	}
	if _, ok := s.fat[magic]; ok {
		return Fat
	}
	return NotExecutable
}

// ClassifyFile classifies the file at path
func (s *Sniffer) ClassifyFile(path string) Format {
	f, err := os.Open(path)
	if err != nil {
		return NotExecutable
	}
	defer f.Close()

	return s.Classify(f)
}
