package polyline

import (
	"math"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

// Precision multipliers of the encoded polyline format
const (
	// Precision5 - стандарт Google Maps
	Precision5 = 1e-5
	// Precision6 - polyline6, его отдаёт Mapbox Directions
	Precision6 = 1e-6
)

// Decode разбирает encoded polyline в список точек.
// Реализация по Google Encoded Polyline Algorithm Format.
func Decode(encoded string, precision float64) []domain.GeoPoint {
	var points []domain.GeoPoint
	index, lat, lon := 0, 0, 0

	for index < len(encoded) {
		dLat, next, ok := decodeValue(encoded, index)
		if !ok {
			return points
		}
		lat += dLat
		index = next

		dLon, next, ok := decodeValue(encoded, index)
		if !ok {
			return points
		}
		lon += dLon
		index = next

		points = append(points, domain.GeoPoint{
			Lat: float64(lat) * precision,
			Lon: float64(lon) * precision,
		})
	}

	return points
}

// decodeValue читает одно varint-значение со знаковым битом
func decodeValue(encoded string, index int) (value, nextIndex int, ok bool) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, index, false
		}
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return -(result >> 1), index, true
	}
	return result >> 1, index, true
}

// Encode кодирует список точек обратно в polyline с той же точностью
func Encode(points []domain.GeoPoint, precision float64) string {
	var out []byte
	prevLat, prevLon := 0, 0

	for _, p := range points {
		lat := int(math.Round(p.Lat / precision))
		lon := int(math.Round(p.Lon / precision))

		out = encodeValue(out, lat-prevLat)
		out = encodeValue(out, lon-prevLon)

		prevLat, prevLon = lat, lon
	}

	return string(out)
}

func encodeValue(out []byte, value int) []byte {
	v := value << 1
	if value < 0 {
		v = ^v
	}
	for v >= 0x20 {
		out = append(out, byte((0x20|(v&0x1f))+63))
		v >>= 5
	}
	return append(out, byte(v+63))
}
