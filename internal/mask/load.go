package mask

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // register PNG decoder
	"os"
	"path/filepath"
	"sort"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/tiff"
)

// FromImage converts a decoded image to a mask plane. Grayscale images are
// taken verbatim; other color models are reduced through the 16-bit gray
// model, which keeps label values distinct for the palettes segmentation
// tools emit.
func FromImage(img image.Image) Plane {
	b := img.Bounds()
	p := NewPlane(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				p.Pix[y*p.Width+x] = uint16(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				p.Pix[y*p.Width+x] = src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
	default:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				p.Pix[y*p.Width+x] = g.Y
			}
		}
	}
	return p
}

// Load reads a mask image file (PNG, TIFF or BMP). A multi-page TIFF
// yields a stack with one plane per page, the format segmentation tools
// use for time-resolved masks.
func Load(path string) (*Mask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open mask: %w", err)
	}
	if tiffByteOrder(data) != nil {
		return decodeTIFFStack(data, path)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode mask %q: %w", path, err)
	}
	return New(FromImage(img)), nil
}

// tiffByteOrder returns the byte order declared by a classic TIFF header,
// or nil when data is not a TIFF file.
func tiffByteOrder(data []byte) binary.ByteOrder {
	if len(data) < 8 {
		return nil
	}
	switch {
	case data[0] == 'I' && data[1] == 'I' && data[2] == 42 && data[3] == 0:
		return binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M' && data[2] == 0 && data[3] == 42:
		return binary.BigEndian
	}
	return nil
}

// decodeTIFFStack decodes every page of a TIFF file into a mask plane.
// The tiff package only decodes the page the header points at, so the
// page directory chain is walked first and the header is retargeted at
// each page in turn. Entry offsets inside a directory are absolute, so
// the rest of the buffer can be reused untouched.
func decodeTIFFStack(data []byte, path string) (*Mask, error) {
	bo := tiffByteOrder(data)
	offsets, err := tiffPageOffsets(data, bo)
	if err != nil {
		return nil, fmt.Errorf("decode mask %q: %w", path, err)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	planes := make([]Plane, 0, len(offsets))
	for _, off := range offsets {
		bo.PutUint32(buf[4:8], off)
		img, err := tiff.Decode(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("decode mask %q page %d: %w", path, len(planes), err)
		}
		plane := FromImage(img)
		if len(planes) > 0 && (plane.Width != planes[0].Width || plane.Height != planes[0].Height) {
			return nil, fmt.Errorf("mask %q page %d is %dx%d, want %dx%d",
				path, len(planes), plane.Width, plane.Height, planes[0].Width, planes[0].Height)
		}
		planes = append(planes, plane)
	}
	return New(planes...), nil
}

// tiffPageOffsets walks the page directory chain and returns the offset
// of every page, in file order.
func tiffPageOffsets(data []byte, bo binary.ByteOrder) ([]uint32, error) {
	var offsets []uint32
	seen := map[uint32]bool{}

	off := bo.Uint32(data[4:8])
	for off != 0 {
		if seen[off] {
			return nil, fmt.Errorf("page directory cycle at offset %d", off)
		}
		seen[off] = true
		if int64(off)+2 > int64(len(data)) {
			return nil, fmt.Errorf("page directory offset %d out of range", off)
		}
		offsets = append(offsets, off)

		entries := int64(bo.Uint16(data[off : off+2]))
		next := int64(off) + 2 + entries*12
		if next+4 > int64(len(data)) {
			return nil, fmt.Errorf("page directory at offset %d truncated", off)
		}
		off = bo.Uint32(data[next : next+4])
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no page directory")
	}
	return offsets, nil
}

// LoadSequence reads an ordered list of per-frame mask images into a
// stack. All frames must share the same dimensions.
func LoadSequence(paths []string) (*Mask, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("mask sequence is empty")
	}
	planes := make([]Plane, 0, len(paths))
	for _, path := range paths {
		plane, err := loadPlane(path)
		if err != nil {
			return nil, err
		}
		if len(planes) > 0 && (plane.Width != planes[0].Width || plane.Height != planes[0].Height) {
			return nil, fmt.Errorf("mask frame %q is %dx%d, want %dx%d",
				path, plane.Width, plane.Height, planes[0].Width, planes[0].Height)
		}
		planes = append(planes, plane)
	}
	return New(planes...), nil
}

// LoadGlob reads a stack from all files matching the pattern, in
// lexical filename order.
func LoadGlob(pattern string) (*Mask, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad mask glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no mask frames match %q", pattern)
	}
	sort.Strings(paths)
	return LoadSequence(paths)
}

func loadPlane(path string) (Plane, error) {
	f, err := os.Open(path)
	if err != nil {
		return Plane{}, fmt.Errorf("open mask: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Plane{}, fmt.Errorf("decode mask %q: %w", path, err)
	}
	return FromImage(img), nil
}
