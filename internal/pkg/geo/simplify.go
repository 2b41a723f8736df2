package geo

import "github.com/officeappout/out-run-app-sub002/internal/domain"

// Simplify прореживает ломаную рекурсивным алгоритмом Дугласа-Пекера.
// Допуск задаётся в метрах и сравнивается с перпендикулярным расстоянием
// по большому кругу. Первая и последняя точки всегда сохраняются.
func Simplify(path []domain.GeoPoint, toleranceM float64) []domain.GeoPoint {
	if len(path) < 3 || toleranceM <= 0 {
		return path
	}
	return douglasPeucker(path, toleranceM)
}

func douglasPeucker(path []domain.GeoPoint, toleranceM float64) []domain.GeoPoint {
	if len(path) < 3 {
		return path
	}

	first := path[0]
	last := path[len(path)-1]

	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < len(path)-1; i++ {
		d := CrossTrackDistanceM(path[i], first, last)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= toleranceM {
		return []domain.GeoPoint{first, last}
	}

	left := douglasPeucker(path[:maxIdx+1], toleranceM)
	right := douglasPeucker(path[maxIdx:], toleranceM)

	// точка излома входит в оба куска, склеиваем без дубля
	out := make([]domain.GeoPoint, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	out = append(out, right...)
	return out
}
