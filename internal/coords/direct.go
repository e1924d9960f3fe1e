package coords

import (
	"github.com/san-kum/encounter/internal/dynamo"
	"github.com/san-kum/encounter/internal/hierarchy"
)

// DirectDim is the number of integration variables per body.
const DirectDim = 6

// PackDirect writes [x y z vx vy vz] for each body into dst, growing it if
// needed.
func PackDirect(bs []*hierarchy.Body, dst dynamo.State) dynamo.State {
	n := DirectDim * len(bs)
	if cap(dst) < n {
		dst = make(dynamo.State, n)
	}
	dst = dst[:n]
	for i, b := range bs {
		o := DirectDim * i
		dst[o], dst[o+1], dst[o+2] = b.X.X, b.X.Y, b.X.Z
		dst[o+3], dst[o+4], dst[o+5] = b.V.X, b.V.Y, b.V.Z
	}
	return dst
}

// UnpackDirect is the inverse of PackDirect.
func UnpackDirect(y dynamo.State, bs []*hierarchy.Body) {
	for i, b := range bs {
		o := DirectDim * i
		b.X.X, b.X.Y, b.X.Z = y[o], y[o+1], y[o+2]
		b.V.X, b.V.Y, b.V.Z = y[o+3], y[o+4], y[o+5]
	}
}
