package utils

// ValidateCoordinates отсекает координаты вне диапазона WGS84.
// Битые строки из источника данных не должны попадать в геометрию маршрута.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
