package geo

import (
	"math"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
)

const earthRadiusKm = 6371.0

func toRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func toDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// DistanceKm вычисляет расстояние большого круга между точками в километрах
func DistanceKm(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// DistanceM - то же расстояние в метрах
func DistanceM(a, b domain.GeoPoint) float64 {
	return DistanceKm(a, b) * 1000.0
}

// Bearing возвращает начальный азимут от a к b в градусах [0, 360)
func Bearing(a, b domain.GeoPoint) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLon := toRad(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := toDeg(math.Atan2(y, x))
	return math.Mod(deg+360.0, 360.0)
}

// Destination возвращает точку на заданном азимуте и дистанции от origin
// (сферическая формула destination point)
func Destination(origin domain.GeoPoint, bearingDeg, distanceKm float64) domain.GeoPoint {
	lat1 := toRad(origin.Lat)
	lon1 := toRad(origin.Lon)
	brng := toRad(bearingDeg)
	delta := distanceKm / earthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	// нормализуем долготу в [-180, 180)
	lonDeg := math.Mod(toDeg(lon2)+540.0, 360.0) - 180.0

	return domain.GeoPoint{Lat: toDeg(lat2), Lon: lonDeg}
}

// PathLengthKm суммирует длину ломаной в километрах
func PathLengthKm(path []domain.GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += DistanceKm(path[i-1], path[i])
	}
	return total
}

// CrossTrackDistanceM - перпендикулярное расстояние от point до дуги a-b
// в метрах. Считается через сферический треугольник и формулу Герона,
// а не через планарную геометрию: входы - сырые lat/lng.
func CrossTrackDistanceM(point, a, b domain.GeoPoint) float64 {
	base := DistanceM(a, b)
	da := DistanceM(a, point)
	db := DistanceM(b, point)

	// вырожденная дуга: расстояние до её единственной точки
	if base < 1e-9 {
		return da
	}

	s := (base + da + db) / 2.0
	area2 := s * (s - base) * (s - da) * (s - db)
	if area2 <= 0 {
		// коллинеарный или почти коллинеарный случай
		return math.Min(da, db)
	}

	return 2.0 * math.Sqrt(area2) / base
}

// IsClosedLoop проверяет, что начало и конец пути совпадают в пределах допуска
func IsClosedLoop(path []domain.GeoPoint, toleranceM float64) bool {
	if len(path) < 2 {
		return false
	}
	return DistanceM(path[0], path[len(path)-1]) <= toleranceM
}
