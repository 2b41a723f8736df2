package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/domain/repository"
	pkgerrors "github.com/officeappout/out-run-app-sub002/internal/pkg/errors"
)

const routeSelect = `
	SELECT
		id,
		area_id,
		name,
		activity,
		tier_name,
		distance_km,
		duration_min,
		calories,
		path,
		hybrid,
		COALESCE(hybrid_type, '') AS hybrid_type,
		stops,
		data_source,
		cluster_cell,
		created_at
	FROM curated_routes
`

const routeInsert = `
	INSERT INTO curated_routes (
		id, area_id, name, activity, tier_name, distance_km, duration_min,
		calories, path, hybrid, hybrid_type, stops, data_source, cluster_cell, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

type routeRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewRouteRepository создает репозиторий готовых маршрутов
func NewRouteRepository(db *DB) repository.RouteRepository {
	return &routeRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type routeRow struct {
	ID          uuid.UUID `db:"id"`
	AreaID      string    `db:"area_id"`
	Name        string    `db:"name"`
	Activity    string    `db:"activity"`
	TierName    string    `db:"tier_name"`
	DistanceKm  float64   `db:"distance_km"`
	DurationMin int       `db:"duration_min"`
	Calories    int       `db:"calories"`
	PathJSON    []byte    `db:"path"`
	Hybrid      bool      `db:"hybrid"`
	HybridType  string    `db:"hybrid_type"`
	StopsJSON   []byte    `db:"stops"`
	DataSource  string    `db:"data_source"`
	ClusterCell string    `db:"cluster_cell"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r routeRow) toDomain() (domain.CuratedRoute, error) {
	route := domain.CuratedRoute{
		ID:          r.ID,
		AreaID:      r.AreaID,
		Name:        r.Name,
		Activity:    domain.ActivityType(r.Activity),
		TierName:    r.TierName,
		DistanceKm:  r.DistanceKm,
		DurationMin: r.DurationMin,
		Calories:    r.Calories,
		Hybrid:      r.Hybrid,
		HybridType:  domain.HybridType(r.HybridType),
		DataSource:  domain.DataSource(r.DataSource),
		ClusterCell: r.ClusterCell,
		CreatedAt:   r.CreatedAt,
	}

	if err := json.Unmarshal(r.PathJSON, &route.Path); err != nil {
		return route, fmt.Errorf("unmarshal path: %w", err)
	}
	if len(r.StopsJSON) > 0 {
		if err := json.Unmarshal(r.StopsJSON, &route.Stops); err != nil {
			return route, fmt.Errorf("unmarshal stops: %w", err)
		}
	}
	return route, nil
}

// ReplaceForArea заменяет маршруты области одной транзакцией:
// сперва удаление старого набора, затем вставка нового
func (r *routeRepository) ReplaceForArea(ctx context.Context, areaID string, routes []domain.CuratedRoute) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return pkgerrors.ErrDatabaseError
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM curated_routes WHERE area_id = $1", areaID); err != nil {
		r.logger.Error("failed to delete old routes", zap.String("area_id", areaID), zap.Error(err))
		return pkgerrors.ErrDatabaseError
	}

	for _, route := range routes {
		pathJSON, err := json.Marshal(route.Path)
		if err != nil {
			return fmt.Errorf("marshal path: %w", err)
		}
		stops := route.Stops
		if stops == nil {
			stops = []domain.FacilityStop{}
		}
		stopsJSON, err := json.Marshal(stops)
		if err != nil {
			return fmt.Errorf("marshal stops: %w", err)
		}

		if _, err := tx.ExecContext(ctx, routeInsert,
			route.ID,
			route.AreaID,
			route.Name,
			string(route.Activity),
			route.TierName,
			route.DistanceKm,
			route.DurationMin,
			route.Calories,
			pathJSON,
			route.Hybrid,
			string(route.HybridType),
			stopsJSON,
			string(route.DataSource),
			route.ClusterCell,
			route.CreatedAt,
		); err != nil {
			r.logger.Error("failed to insert route",
				zap.String("route_id", route.ID.String()),
				zap.Error(err))
			return pkgerrors.ErrDatabaseError
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit route replacement", zap.Error(err))
		return pkgerrors.ErrDatabaseError
	}

	r.logger.Info("Area routes replaced",
		zap.String("area_id", areaID),
		zap.Int("routes", len(routes)))

	return nil
}

func (r *routeRepository) GetByArea(ctx context.Context, areaID string, activity *domain.ActivityType) ([]domain.CuratedRoute, error) {
	query := routeSelect + " WHERE area_id = $1"
	args := []interface{}{areaID}

	if activity != nil {
		query += " AND activity = $2"
		args = append(args, string(*activity))
	}
	query += " ORDER BY created_at, name"

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query routes", zap.String("area_id", areaID), zap.Error(err))
		return nil, pkgerrors.ErrDatabaseError
	}
	defer rows.Close()

	routes := make([]domain.CuratedRoute, 0)
	for rows.Next() {
		var row routeRow
		if err := rows.StructScan(&row); err != nil {
			r.logger.Error("failed to scan route row", zap.Error(err))
			continue
		}
		route, err := row.toDomain()
		if err != nil {
			r.logger.Error("failed to decode route payload",
				zap.String("route_id", row.ID.String()),
				zap.Error(err))
			continue
		}
		routes = append(routes, route)
	}

	return routes, nil
}

func (r *routeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CuratedRoute, error) {
	query := routeSelect + " WHERE id = $1 LIMIT 1"

	var row routeRow
	err := r.db.QueryRowxContext(ctx, query, id).StructScan(&row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get route", zap.String("route_id", id.String()), zap.Error(err))
		return nil, pkgerrors.ErrDatabaseError
	}

	route, err := row.toDomain()
	if err != nil {
		r.logger.Error("failed to decode route payload",
			zap.String("route_id", id.String()),
			zap.Error(err))
		return nil, pkgerrors.ErrDatabaseError
	}

	return &route, nil
}
