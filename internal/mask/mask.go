// Package mask holds segmentation mask rasters for particle channels.
//
// A mask is either a single 2-D plane (static channels) or a stack of
// planes indexed by frame. Pixel value zero is background; any nonzero
// value marks the interior of a segmented particle region.
package mask

// Plane is one 2-D mask frame stored row-major.
type Plane struct {
	Width  int
	Height int
	Pix    []uint16
}

// NewPlane allocates a zeroed plane of the given size.
func NewPlane(width, height int) Plane {
	return Plane{Width: width, Height: height, Pix: make([]uint16, width*height)}
}

// At returns the pixel value at (x, y). The second return is false when
// the coordinates fall outside the plane.
func (p Plane) At(x, y int) (uint16, bool) {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return 0, false
	}
	return p.Pix[y*p.Width+x], true
}

// Set writes a pixel value, ignoring out-of-bounds coordinates.
func (p Plane) Set(x, y int, v uint16) {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return
	}
	p.Pix[y*p.Width+x] = v
}

// Mask is a segmentation mask raster: one plane per frame. Static masks
// hold a single plane that callers address as frame 0.
type Mask struct {
	Planes []Plane
}

// New builds a mask from pre-filled planes.
func New(planes ...Plane) *Mask {
	return &Mask{Planes: planes}
}

// FrameCount returns the number of planes in the stack.
func (m *Mask) FrameCount() int { return len(m.Planes) }

// At returns the pixel value at (frame, x, y). The second return is false
// when the frame or the pixel coordinates are out of bounds.
func (m *Mask) At(frame, x, y int) (uint16, bool) {
	if frame < 0 || frame >= len(m.Planes) {
		return 0, false
	}
	return m.Planes[frame].At(x, y)
}
