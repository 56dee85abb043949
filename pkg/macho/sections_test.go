package macho

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bundlecheck/bundlecheck/internal/machotest"
)

func newTestExtractor() *Extractor {
	return NewExtractor(NewSniffer(), "")
}

func TestExtractFiltersSections(t *testing.T) {
	image := machotest.Thin([]machotest.Spec{
		{Segment: "__TEXT", Name: "__text", Offset: 0x200, Data: []byte("machine code")},
		{Segment: "__DATA", Name: "__data", Offset: 0x240, Data: []byte("initialized")},
		{Segment: "__DATA", Name: "__bss", Offset: 0, Size: 128},
		{Segment: "__DATA", Name: "__empty", Offset: 0x260, Size: 0},
		{Segment: "__LINKEDIT", Name: "__sigblob", Offset: 0x280, Data: []byte("signature")},
	}, 0x300)

	sections, err := newTestExtractor().Extract(bytes.NewReader(image))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(sections) != 2 {
		t.Fatalf("Extract() returned %d sections, want 2: %+v", len(sections), sections)
	}

	// Table order must be preserved
	if sections[0].Segment != "__TEXT" || sections[0].Name != "__text" {
		t.Errorf("sections[0] = %+v, want __TEXT,__text", sections[0])
	}
	if sections[0].Offset != 0x200 || sections[0].Size != uint64(len("machine code")) {
		t.Errorf("sections[0] offset/size = %d/%d", sections[0].Offset, sections[0].Size)
	}
	if sections[1].Segment != "__DATA" || sections[1].Name != "__data" {
		t.Errorf("sections[1] = %+v, want __DATA,__data", sections[1])
	}

	// No retained section may be zero-fill or empty
	for _, s := range sections {
		if s.Offset == 0 {
			t.Errorf("section %s,%s has zero offset", s.Segment, s.Name)
		}
		if s.Size == 0 {
			t.Errorf("section %s,%s has zero size", s.Segment, s.Name)
		}
	}
}

func TestExtractNoComparableSections(t *testing.T) {
	// Every section is excluded: signature segment, zero-fill, empty
	image := machotest.Thin([]machotest.Spec{
		{Segment: "__LINKEDIT", Name: "__sigblob", Offset: 0x200, Data: []byte("signature")},
		{Segment: "__DATA", Name: "__bss", Offset: 0, Size: 64},
		{Segment: "__DATA", Name: "__empty", Offset: 0x240, Size: 0},
	}, 0x300)

	_, err := newTestExtractor().Extract(bytes.NewReader(image))
	if err == nil {
		t.Fatal("Extract() should fail when no comparable sections remain")
	}
	if !errors.Is(err, ErrNoComparableSections) {
		t.Errorf("Extract() error = %v, want ErrNoComparableSections", err)
	}
}

func TestExtractNotExecutable(t *testing.T) {
	_, err := newTestExtractor().Extract(bytes.NewReader([]byte("just a text file")))
	if err == nil {
		t.Fatal("Extract() should fail for non-executable input")
	}

	var serr *SectionError
	if !errors.As(err, &serr) {
		t.Errorf("Extract() error = %T, want *SectionError", err)
	}
}

func TestExtractFat(t *testing.T) {
	// Slices need distinct cpu types; fat parsers reject duplicates
	sliceA := machotest.ThinCPU(machotest.CPUArm64, []machotest.Spec{
		{Segment: "__TEXT", Name: "__text", Offset: 0x100, Data: []byte("arch one")},
	}, 0x200)
	sliceB := machotest.ThinCPU(machotest.CPUAmd64, []machotest.Spec{
		{Segment: "__TEXT", Name: "__text", Offset: 0x100, Data: []byte("arch two")},
	}, 0x200)

	fat := machotest.Fat(sliceA, sliceB)

	sections, err := newTestExtractor().Extract(bytes.NewReader(fat))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(sections) != 2 {
		t.Fatalf("Extract() returned %d sections, want one per slice: %+v", len(sections), sections)
	}

	// Offsets must be absolute within the fat container, and thus
	// distinct across slices even though the slice-relative offsets match
	if sections[0].Offset == sections[1].Offset {
		t.Errorf("slice offsets not adjusted: both at %d", sections[0].Offset)
	}
	for i, s := range sections {
		if s.Offset <= 0x100 {
			t.Errorf("sections[%d].Offset = %d, want slice-base adjusted value", i, s.Offset)
		}
	}

	// Consecutive 64-byte-aligned slices of 0x200 bytes put the second
	// slice's section exactly one slice size past the first
	if sections[1].Offset-sections[0].Offset != 0x200 {
		t.Errorf("rebased offsets %d and %d, want them one slice apart",
			sections[0].Offset, sections[1].Offset)
	}
}

func TestExtractFileSetsPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "bundlecheck-macho-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "notbinary")
	if err := os.WriteFile(path, []byte("plain content"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err = newTestExtractor().ExtractFile(path)
	if err == nil {
		t.Fatal("ExtractFile() should fail for non-executable file")
	}

	var serr *SectionError
	if !errors.As(err, &serr) {
		t.Fatalf("ExtractFile() error = %T, want *SectionError", err)
	}
	if serr.Path != path {
		t.Errorf("SectionError.Path = %q, want %q", serr.Path, path)
	}
}

func TestExtractCustomSignatureSegment(t *testing.T) {
	image := machotest.Thin([]machotest.Spec{
		{Segment: "__TEXT", Name: "__text", Offset: 0x200, Data: []byte("code")},
		{Segment: "__SIGSEG", Name: "__blob", Offset: 0x240, Data: []byte("blob")},
	}, 0x300)

	extractor := NewExtractor(NewSniffer(), "__SIGSEG")
	sections, err := extractor.Extract(bytes.NewReader(image))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(sections) != 1 || sections[0].Segment != "__TEXT" {
		t.Errorf("Extract() = %+v, want only the __TEXT section", sections)
	}
}
