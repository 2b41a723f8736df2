package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/config"
	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/polyline"
)

type client struct {
	httpClient     *http.Client
	baseURL        string
	accessToken    string
	walkingProfile string
	cyclingProfile string
	logger         *zap.Logger
}

// NewDirectionsClient создает клиент Mapbox Directions API v5
func NewDirectionsClient(cfg *config.MapboxConfig, logger *zap.Logger) repository.DirectionsRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:        cfg.BaseURL,
		accessToken:    cfg.AccessToken,
		walkingProfile: cfg.WalkingProfile,
		cyclingProfile: cfg.CyclingProfile,
		logger:         logger,
	}
}

// directionsResponse - ответ Directions API
type directionsResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route строит маршрут через упорядоченные вейпоинты.
// Геометрия запрашивается как polyline6 с полной детализацией.
func (c *client) Route(
	ctx context.Context,
	waypoints []domain.GeoPoint,
	activity domain.ActivityType,
	continueStraight bool,
) (*domain.DirectionsRoute, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("need at least 2 waypoints, got %d", len(waypoints))
	}

	coordinates := make([]string, len(waypoints))
	for i, wp := range waypoints {
		coordinates[i] = fmt.Sprintf("%.6f,%.6f", wp.Lon, wp.Lat)
	}

	url := fmt.Sprintf("%s/directions/v5/%s/%s?alternatives=false&geometries=polyline6&overview=full&continue_straight=%t&access_token=%s",
		c.baseURL,
		c.profileFor(activity),
		strings.Join(coordinates, ";"),
		continueStraight,
		c.accessToken,
	)

	c.logger.Debug("Calling Mapbox Directions API",
		zap.String("activity", string(activity)),
		zap.Int("waypoints", len(waypoints)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("Mapbox API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("mapbox API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var dirResp directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dirResp); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if dirResp.Code != "Ok" {
		c.logger.Error("Mapbox API returned non-OK code",
			zap.String("code", dirResp.Code),
			zap.String("message", dirResp.Message))
		return nil, fmt.Errorf("mapbox API returned code: %s", dirResp.Code)
	}

	if len(dirResp.Routes) == 0 {
		return nil, fmt.Errorf("mapbox API returned no routes")
	}

	best := dirResp.Routes[0]
	path := polyline.Decode(best.Geometry, polyline.Precision6)
	if len(path) == 0 {
		return nil, fmt.Errorf("mapbox API returned empty geometry")
	}

	c.logger.Debug("Mapbox Directions API call successful",
		zap.Float64("distance_m", best.Distance),
		zap.Int("points", len(path)))

	return &domain.DirectionsRoute{
		Path:            path,
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
	}, nil
}

// profileFor - профиль Mapbox по активности; бег ходит пешеходным профилем
func (c *client) profileFor(activity domain.ActivityType) string {
	if activity == domain.ActivityCycling {
		return c.cyclingProfile
	}
	return c.walkingProfile
}
