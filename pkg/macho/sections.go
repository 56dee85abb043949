package macho

import (
	"errors"
	"fmt"
	"io"
	"os"

	gomacho "github.com/blacktop/go-macho"
)

// DefaultSignatureSegment is the segment rewritten wholesale by code
// signing: it carries the signature blob and the late-bound symbol and
// string tables at the tail of the image.
const DefaultSignatureSegment = "__LINKEDIT"

// ErrNoComparableSections is returned when filtering leaves nothing to
// hash. Hashing zero sections could spuriously report two unrelated
// files as identical, so this is an error rather than an empty result.
var ErrNoComparableSections = errors.New("no comparable sections")

// Section is one loadable section backed by file content.
// Offset is absolute within the file; for fat binaries it already
// includes the architecture slice's base offset.
type Section struct {
	Segment string
	Name    string
	Offset  uint64
	Size    uint64
}

// SectionError indicates an image whose section table could not be
// introspected
type SectionError struct {
	Path string
	Err  error
}

func (e *SectionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("section extraction failed for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("section extraction failed: %v", e.Err)
}

func (e *SectionError) Unwrap() error {
	return e.Err
}

// Extractor produces the comparable section list of an executable image
// by parsing its load-command table directly.
type Extractor struct {
	sniffer          *Sniffer
	signatureSegment string
}

// NewExtractor creates an extractor that excludes sections belonging to
// signatureSegment (DefaultSignatureSegment if empty)
func NewExtractor(sniffer *Sniffer, signatureSegment string) *Extractor {
	if signatureSegment == "" {
		signatureSegment = DefaultSignatureSegment
	}
	return &Extractor{
		sniffer:          sniffer,
		signatureSegment: signatureSegment,
	}
}

// Extract returns the ordered comparable sections of the image read from r.
// Fat binaries are handled slice by slice in fat-header order, each
// slice's sections offset by the slice base, so every embedded
// architecture contributes to the comparable content.
func (e *Extractor) Extract(r io.ReaderAt) ([]Section, error) {
	switch e.sniffer.Classify(r) {
	case Thin:
		f, err := gomacho.NewFile(r)
		if err != nil {
			return nil, &SectionError{Err: fmt.Errorf("parse image: %w", err)}
		}
		sections := e.filter(f, 0, nil)
		if len(sections) == 0 {
			return nil, &SectionError{Err: ErrNoComparableSections}
		}
		return sections, nil

	case Fat:
		ff, err := gomacho.NewFatFile(r)
		if err != nil {
			return nil, &SectionError{Err: fmt.Errorf("parse fat image: %w", err)}
		}
		var sections []Section
		for _, arch := range ff.Arches {
			sections = e.filter(arch.File, uint64(arch.Offset), sections)
		}
		if len(sections) == 0 {
			return nil, &SectionError{Err: ErrNoComparableSections}
		}
		return sections, nil

	default:
		return nil, &SectionError{Err: errors.New("not an executable image")}
	}
}

// ExtractFile extracts the comparable sections of the file at path
func (e *Extractor) ExtractFile(path string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SectionError{Path: path, Err: err}
	}
	defer f.Close()

	sections, err := e.Extract(f)
	if err != nil {
		var serr *SectionError
		if errors.As(err, &serr) {
			serr.Path = path
		}
		return nil, err
	}
	return sections, nil
}

// filter appends the comparable sections of one image slice, in table
// order. Exclusion rules, in order:
//  1. sections of the signature segment (rewritten by signing)
//  2. sections with declared file offset zero (zero-fill, no on-disk
//     backing; reading them at 0 would alias unrelated file content)
//  3. sections with declared size zero
func (e *Extractor) filter(f *gomacho.File, base uint64, out []Section) []Section {
	for _, sect := range f.Sections {
		if sect.Seg == e.signatureSegment {
			continue
		}
		if sect.Offset == 0 {
			continue
		}
		if sect.Size == 0 {
			continue
		}
		out = append(out, Section{
			Segment: sect.Seg,
			Name:    sect.Name,
			Offset:  base + uint64(sect.Offset),
			Size:    sect.Size,
		})
	}
	return out
}
