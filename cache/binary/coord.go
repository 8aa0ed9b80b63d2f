// Package binary contains the compact encoding of cached node coordinates.
package binary

import (
	"math"

	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

// coordinates are stored with 1e-7 degree precision, the default
// granularity of OSM PBF files
const coordFactor float64 = 1e7

// CoordToInt rounds coord (-180..180) to the nearest step and shifts it
// into the uint32 range.
func CoordToInt(coord float64) uint32 {
	return uint32(math.Round((coord + 180.0) * coordFactor))
}

func IntToCoord(coord uint32) float64 {
	return float64(coord)/coordFactor - 180.0
}

// PackCoord packs both coordinates into a single uint64.
func PackCoord(long, lat float64) uint64 {
	return uint64(CoordToInt(long))<<32 | uint64(CoordToInt(lat))
}

func UnpackCoord(c uint64) (long, lat float64) {
	return IntToCoord(uint32(c >> 32)), IntToCoord(uint32(c))
}

// MarshalCoord encodes long/lat as two protobuf varints.
func MarshalCoord(long, lat float64) []byte {
	buf := proto.NewBuffer(make([]byte, 0, 2*proto.SizeVarint(1<<32-1)))
	buf.EncodeVarint(uint64(CoordToInt(long)))
	buf.EncodeVarint(uint64(CoordToInt(lat)))
	return buf.Bytes()
}

var errCoord = errors.New("unmarshal coord: missing data for varint or overflow")

func UnmarshalCoord(data []byte) (long, lat float64, err error) {
	x, n := proto.DecodeVarint(data)
	if n == 0 || x > 1<<32-1 {
		return 0, 0, errCoord
	}
	y, m := proto.DecodeVarint(data[n:])
	if m == 0 || y > 1<<32-1 {
		return 0, 0, errCoord
	}
	if n+m != len(data) {
		return 0, 0, errors.Wrapf(errCoord, "%d trailing bytes", len(data)-n-m)
	}
	return IntToCoord(uint32(x)), IntToCoord(uint32(y)), nil
}
