package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
	pkgerrors "github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/gis"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/utils"
)

const segmentSelect = `
	SELECT
		id,
		area_id,
		name,
		mode,
		legacy_activity_type,
		COALESCE(tags, '{}'::jsonb)::text AS tags_json,
		ST_AsGeoJSON(geom)::text AS geom_json,
		ST_Length(geom::geography) / 1000.0 AS length_km
	FROM infrastructure_segments
`

type segmentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSegmentRepository создает репозиторий сегментов инфраструктуры
func NewSegmentRepository(db *DB) repository.SegmentRepository {
	return &segmentRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type segmentRow struct {
	ID       int64          `db:"id"`
	AreaID   string         `db:"area_id"`
	Name     sql.NullString `db:"name"`
	Mode     sql.NullString `db:"mode"`
	Legacy   sql.NullString `db:"legacy_activity_type"`
	TagsJSON []byte         `db:"tags_json"`
	GeomJSON []byte         `db:"geom_json"`
	LengthKm float64        `db:"length_km"`
}

// lineStringGeoJSON - разобранный ST_AsGeoJSON для LineString
type lineStringGeoJSON struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

func (r *segmentRepository) FetchByArea(ctx context.Context, areaID string) ([]domain.InfrastructureSegment, error) {
	query := segmentSelect + " WHERE area_id = $1 ORDER BY id"

	rows, err := r.db.QueryxContext(ctx, query, areaID)
	if err != nil {
		r.logger.Error("failed to query segments", zap.String("area_id", areaID), zap.Error(err))
		return nil, pkgerrors.ErrDatabaseError
	}
	defer rows.Close()

	segments := make([]domain.InfrastructureSegment, 0)
	for rows.Next() {
		var row segmentRow
		if err := rows.StructScan(&row); err != nil {
			r.logger.Error("failed to scan segment row", zap.Error(err))
			continue
		}

		path := parseLineString(row.GeomJSON)
		if len(path) < 2 {
			// битая или вырожденная геометрия, сегмент бесполезен
			r.logger.Warn("Segment geometry degenerate, skipping",
				zap.Int64("segment_id", row.ID),
				zap.Int("points", len(path)))
			continue
		}

		segments = append(segments, domain.InfrastructureSegment{
			ID:                 row.ID,
			AreaID:             row.AreaID,
			Name:               nullableString(row.Name),
			Path:               path,
			Mode:               domain.InfraMode(row.Mode.String),
			LegacyActivityType: row.Legacy.String,
			Tags:               gis.ParseTags(row.TagsJSON),
			LengthKm:           row.LengthKm,
		})
	}

	r.logger.Debug("Segments loaded",
		zap.String("area_id", areaID),
		zap.Int("count", len(segments)))

	return segments, nil
}

// parseLineString разбирает GeoJSON LineString в точки, отбрасывая
// пары с мусорными координатами
func parseLineString(raw []byte) []domain.GeoPoint {
	var geom lineStringGeoJSON
	if err := json.Unmarshal(raw, &geom); err != nil {
		return nil
	}
	if geom.Type != "LineString" {
		return nil
	}

	path := make([]domain.GeoPoint, 0, len(geom.Coordinates))
	for _, pair := range geom.Coordinates {
		if len(pair) < 2 {
			continue
		}
		lon, lat := pair[0], pair[1]
		if !utils.ValidateCoordinates(lat, lon) {
			continue
		}
		path = append(path, domain.GeoPoint{Lat: lat, Lon: lon})
	}
	return path
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
