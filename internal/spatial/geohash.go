package spatial

import "strings"

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// MaxGeohashPrecision is the longest geohash EncodeGeohash produces
const MaxGeohashPrecision = 12

// interval is one axis of a geohash cell
type interval struct{ lo, hi float64 }

// split halves the interval and keeps the upper half when upper is set
func (iv *interval) split(upper bool) {
	mid := (iv.lo + iv.hi) / 2
	if upper {
		iv.lo = mid
	} else {
		iv.hi = mid
	}
}

func (iv interval) center() float64 { return (iv.lo + iv.hi) / 2 }

// EncodeGeohash encodes a position into a geohash of precision characters,
// clamped to 1..MaxGeohashPrecision. A value exactly on a cell boundary goes
// to the lower cell.
func EncodeGeohash(lat, lon float64, precision int) string {
	precision = min(max(precision, 1), MaxGeohashPrecision)

	latIv := interval{-90, 90}
	lonIv := interval{-180, 180}

	var sb strings.Builder
	sb.Grow(precision)

	even := true
	for sb.Len() < precision {
		ch := 0
		for b := 4; b >= 0; b-- {
			if even {
				upper := lon > lonIv.center()
				lonIv.split(upper)
				if upper {
					ch |= 1 << b
				}
			} else {
				upper := lat > latIv.center()
				latIv.split(upper)
				if upper {
					ch |= 1 << b
				}
			}
			even = !even
		}
		sb.WriteByte(geohashAlphabet[ch])
	}
	return sb.String()
}

// DecodeGeohash returns the center of the geohash cell. Characters outside
// the alphabet are skipped.
func DecodeGeohash(hash string) Coordinate {
	latIv := interval{-90, 90}
	lonIv := interval{-180, 180}

	even := true
	for i := 0; i < len(hash); i++ {
		idx := strings.IndexByte(geohashAlphabet, hash[i])
		if idx < 0 {
			continue
		}
		for b := 4; b >= 0; b-- {
			upper := idx&(1<<b) != 0
			if even {
				lonIv.split(upper)
			} else {
				latIv.split(upper)
			}
			even = !even
		}
	}

	return Coordinate{Lat: latIv.center(), Lng: lonIv.center()}
}
