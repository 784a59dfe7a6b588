package mask

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func grayImage(w, h int, set map[[2]int]uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for pos, v := range set {
		img.SetGray(pos[0], pos[1], color.Gray{Y: v})
	}
	return img
}

func TestFromImageGray(t *testing.T) {
	img := grayImage(3, 2, map[[2]int]uint8{{1, 0}: 5, {2, 1}: 200})
	p := FromImage(img)

	if p.Width != 3 || p.Height != 2 {
		t.Fatalf("plane is %dx%d, want 3x2", p.Width, p.Height)
	}
	if v, _ := p.At(1, 0); v != 5 {
		t.Errorf("At(1, 0) = %d, want 5", v)
	}
	if v, _ := p.At(2, 1); v != 200 {
		t.Errorf("At(2, 1) = %d, want 200", v)
	}
	if v, _ := p.At(0, 0); v != 0 {
		t.Errorf("At(0, 0) = %d, want background", v)
	}
}

func TestFromImageGray16KeepsLabels(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 2, 1))
	img.SetGray16(0, 0, color.Gray16{Y: 1})
	img.SetGray16(1, 0, color.Gray16{Y: 1000})
	p := FromImage(img)

	if v, _ := p.At(0, 0); v != 1 {
		t.Errorf("At(0, 0) = %d, want label 1", v)
	}
	if v, _ := p.At(1, 0); v != 1000 {
		t.Errorf("At(1, 0) = %d, want label 1000", v)
	}
}

func TestLoadSingleFrame(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mask.png")
	writePNG(t, path, grayImage(4, 4, map[[2]int]uint8{{1, 1}: 255}))

	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.FrameCount() != 1 {
		t.Fatalf("FrameCount = %d, want 1", m.FrameCount())
	}
	if v, ok := m.At(0, 1, 1); !ok || v == 0 {
		t.Errorf("At(0, 1, 1) = (%d, %v), want foreground", v, ok)
	}
}

// writeMultiPageTIFF writes an uncompressed 8-bit grayscale TIFF with one
// page per image, little-endian, each page holding a single strip.
func writeMultiPageTIFF(t *testing.T, path string, pages []*image.Gray) {
	t.Helper()
	const ifdSize = 2 + 9*12 + 4

	type pageLayout struct{ data, ifd uint32 }
	offs := make([]pageLayout, len(pages))
	pos := uint32(8)
	for i, p := range pages {
		n := uint32(p.Bounds().Dx() * p.Bounds().Dy())
		offs[i] = pageLayout{data: pos, ifd: pos + n}
		pos += n + ifdSize
	}

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, binary.LittleEndian, uint16(42))
	binary.Write(&buf, binary.LittleEndian, offs[0].ifd)

	// In a little-endian TIFF a SHORT value occupies the low bytes of the
	// four-byte value field, so both SHORT and LONG entries can be written
	// as a uint32.
	entry := func(tag, typ uint16, value uint32) {
		binary.Write(&buf, binary.LittleEndian, tag)
		binary.Write(&buf, binary.LittleEndian, typ)
		binary.Write(&buf, binary.LittleEndian, uint32(1))
		binary.Write(&buf, binary.LittleEndian, value)
	}

	for i, p := range pages {
		w := p.Bounds().Dx()
		h := p.Bounds().Dy()
		for y := 0; y < h; y++ {
			buf.Write(p.Pix[y*p.Stride : y*p.Stride+w])
		}

		binary.Write(&buf, binary.LittleEndian, uint16(9))
		entry(256, 3, uint32(w))        // ImageWidth
		entry(257, 3, uint32(h))        // ImageLength
		entry(258, 3, 8)                // BitsPerSample
		entry(259, 3, 1)                // Compression: none
		entry(262, 3, 1)                // Photometric: BlackIsZero
		entry(273, 4, offs[i].data)     // StripOffsets
		entry(277, 3, 1)                // SamplesPerPixel
		entry(278, 3, uint32(h))        // RowsPerStrip
		entry(279, 4, uint32(w*h))      // StripByteCounts
		next := uint32(0)
		if i+1 < len(pages) {
			next = offs[i+1].ifd
		}
		binary.Write(&buf, binary.LittleEndian, next)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMultiPageTIFFStack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.tif")
	writeMultiPageTIFF(t, path, []*image.Gray{
		grayImage(4, 3, map[[2]int]uint8{{1, 0}: 7}),
		grayImage(4, 3, map[[2]int]uint8{{2, 1}: 9}),
	})

	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.FrameCount() != 2 {
		t.Fatalf("FrameCount = %d, want 2", m.FrameCount())
	}
	if v, _ := m.At(0, 1, 0); v != 7 {
		t.Errorf("At(0, 1, 0) = %d, want 7", v)
	}
	if v, _ := m.At(0, 2, 1); v != 0 {
		t.Errorf("At(0, 2, 1) = %d, want background on frame 0", v)
	}
	if v, _ := m.At(1, 2, 1); v != 9 {
		t.Errorf("At(1, 2, 1) = %d, want 9", v)
	}
	if v, _ := m.At(1, 1, 0); v != 0 {
		t.Errorf("At(1, 1, 0) = %d, want background on frame 1", v)
	}
}

func TestLoadSinglePageTIFF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.tif")
	writeMultiPageTIFF(t, path, []*image.Gray{
		grayImage(2, 2, map[[2]int]uint8{{0, 1}: 3}),
	})

	m, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.FrameCount() != 1 {
		t.Fatalf("FrameCount = %d, want 1", m.FrameCount())
	}
	if v, _ := m.At(0, 0, 1); v != 3 {
		t.Errorf("At(0, 0, 1) = %d, want 3", v)
	}
}

func TestLoadMultiPageTIFFRejectsMixedSizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.tif")
	writeMultiPageTIFF(t, path, []*image.Gray{
		grayImage(2, 2, nil),
		grayImage(3, 2, nil),
	})

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for mismatched page sizes")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadGlobOrdersFrames(t *testing.T) {
	dir := t.TempDir()
	// Frame index encoded in the pixel value to verify ordering.
	for i := 0; i < 3; i++ {
		writePNG(t, filepath.Join(dir, "mask_00"+string(rune('0'+i))+".png"),
			grayImage(2, 2, map[[2]int]uint8{{0, 0}: uint8(i + 1)}))
	}

	m, err := LoadGlob(filepath.Join(dir, "mask_*.png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.FrameCount() != 3 {
		t.Fatalf("FrameCount = %d, want 3", m.FrameCount())
	}
	for i := 0; i < 3; i++ {
		if v, _ := m.At(i, 0, 0); v != uint16(i+1) {
			t.Errorf("frame %d value = %d, want %d", i, v, i+1)
		}
	}
}

func TestLoadSequenceRejectsMixedSizes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, grayImage(2, 2, nil))
	writePNG(t, b, grayImage(3, 2, nil))

	if _, err := LoadSequence([]string{a, b}); err == nil {
		t.Fatal("expected an error for mismatched frame sizes")
	}
}

func TestLoadGlobNoMatches(t *testing.T) {
	if _, err := LoadGlob(filepath.Join(t.TempDir(), "*.png")); err == nil {
		t.Fatal("expected an error when no frames match")
	}
}
