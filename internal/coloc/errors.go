package coloc

import "fmt"

// InvalidCentroidError reports a track centroid whose pixel coordinate
// falls outside the channel mask or lands on background. The mask and the
// tracking data disagree, so the whole cell's computation is abandoned.
type InvalidCentroidError struct {
	Channel  string
	Particle int
	Frame    int
	X, Y     int // pixel coordinates of the offending centroid
}

func (e *InvalidCentroidError) Error() string {
	return fmt.Sprintf("channel %q: centroid of particle %d at frame %d maps to pixel (%d, %d) with no mask particle under it",
		e.Channel, e.Particle, e.Frame, e.X, e.Y)
}
