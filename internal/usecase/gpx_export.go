package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/tkrajina/gpxgo/gpx"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
)

// ExportGPX сериализует маршрут в GPX 1.1: один трек с одним сегментом
// по полной геометрии плюс waypoint на каждую привязанную точку.
// Возвращает документ и имя файла для Content-Disposition.
func (uc *RouteUseCase) ExportGPX(ctx context.Context, id string) ([]byte, string, error) {
	route, err := uc.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}

	segment := gpx.GPXTrackSegment{
		Points: make([]gpx.GPXPoint, 0, len(route.Path)),
	}
	for _, p := range route.Path {
		segment.Points = append(segment.Points, gpx.GPXPoint{
			Point: gpx.Point{Latitude: p.Lat, Longitude: p.Lon},
		})
	}

	doc := &gpx.GPX{
		Version:     "1.1",
		Creator:     "out-run-routes",
		Name:        route.Name,
		Description: fmt.Sprintf("%.2f km, %d min, %d kcal", route.DistanceKm, route.DurationMin, route.Calories),
		Time:        &route.CreatedAt,
		Tracks: []gpx.GPXTrack{
			{
				Name:     route.Name,
				Type:     string(route.Activity),
				Segments: []gpx.GPXTrackSegment{segment},
			},
		},
	}

	for _, stop := range route.Stops {
		doc.Waypoints = append(doc.Waypoints, gpx.GPXPoint{
			Point:       gpx.Point{Latitude: stop.Lat, Longitude: stop.Lon},
			Name:        stop.Name,
			Description: fmt.Sprintf("%s %s", stop.Tier.String(), string(stop.StopType)),
		})
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		uc.logger.Error("Failed to serialize GPX", zap.String("route_id", id), zap.Error(err))
		return nil, "", errors.ErrInternalServer
	}

	return data, gpxFileName(route.Name), nil
}

// gpxFileName - безопасное имя файла из названия маршрута
func gpxFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	if slug == "" {
		slug = "route"
	}
	return slug + ".gpx"
}
