package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
	pkgerrors "github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
	"github.com/officeappout/out-run-app-sub002/internal/pkg/utils"
)

const facilitySelect = `
	SELECT
		id,
		COALESCE(name, '') AS name,
		category,
		step_count,
		COALESCE(near_park_or_plaza, FALSE) AS near_park_or_plaza,
		ST_Y(geom) AS lat,
		ST_X(geom) AS lon
	FROM fitness_facilities
`

type facilityRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewFacilityRepository создает репозиторий фитнес-объектов
func NewFacilityRepository(db *DB) repository.FacilityRepository {
	return &facilityRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type facilityRow struct {
	ID              int64         `db:"id"`
	Name            string        `db:"name"`
	Category        string        `db:"category"`
	StepCount       sql.NullInt64 `db:"step_count"`
	NearParkOrPlaza bool          `db:"near_park_or_plaza"`
	Lat             float64       `db:"lat"`
	Lon             float64       `db:"lon"`
}

// FetchByArea возвращает кандидатов области без тира. Посторонние
// категории отсекаются ещё в SQL, классификация остаётся за доменом.
func (r *facilityRepository) FetchByArea(ctx context.Context, areaID string) ([]domain.FacilityCandidate, error) {
	query := facilitySelect + " WHERE area_id = $1 AND category = ANY($2) ORDER BY id"

	rows, err := r.db.QueryxContext(ctx, query, areaID, pq.Array(domain.FacilityCategories()))
	if err != nil {
		r.logger.Error("failed to query facilities", zap.String("area_id", areaID), zap.Error(err))
		return nil, pkgerrors.ErrDatabaseError
	}
	defer rows.Close()

	candidates := make([]domain.FacilityCandidate, 0)
	for rows.Next() {
		var row facilityRow
		if err := rows.StructScan(&row); err != nil {
			r.logger.Error("failed to scan facility row", zap.Error(err))
			continue
		}
		if !utils.ValidateCoordinates(row.Lat, row.Lon) {
			r.logger.Warn("Facility has invalid coordinates, skipping",
				zap.Int64("facility_id", row.ID))
			continue
		}

		var stepCount *int
		if row.StepCount.Valid {
			v := int(row.StepCount.Int64)
			stepCount = &v
		}

		candidates = append(candidates, domain.FacilityCandidate{
			ID:              row.ID,
			Name:            row.Name,
			Lat:             row.Lat,
			Lon:             row.Lon,
			Category:        row.Category,
			StepCount:       stepCount,
			NearParkOrPlaza: row.NearParkOrPlaza,
		})
	}

	r.logger.Debug("Facilities loaded",
		zap.String("area_id", areaID),
		zap.Int("count", len(candidates)))

	return candidates, nil
}
