package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/officeappout/out-run-app-sub002/internal/domain"
	"github.com/officeappout/out-run-app-sub002/internal/repository/postgres"
)

var facilityColumns = []string{
	"id", "name", "category", "step_count", "near_park_or_plaza", "lat", "lon",
}

func newFacilityRepoMock(t *testing.T) (*postgres.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return postgres.NewDBForTest(sqlxDB, nil), mock, func() { db.Close() }
}

func TestFacilityRepository_FetchByArea(t *testing.T) {
	ctx := context.Background()

	t.Run("returns candidates without tier", func(t *testing.T) {
		db, mock, closeFn := newFacilityRepoMock(t)
		defer closeFn()
		repo := postgres.NewFacilityRepository(db)

		rows := sqlmock.NewRows(facilityColumns).
			AddRow(int64(1), "Street Workout Park", "calisthenics", nil, false, 41.3851, 2.1734).
			AddRow(int64(2), "Montjuic Stairs", "stairs", int64(120), false, 41.3640, 2.1580).
			AddRow(int64(3), "", "bench", nil, true, 41.3900, 2.1800)

		mock.ExpectQuery("FROM fitness_facilities(.|\n)+WHERE area_id = \\$1 AND category = ANY\\(\\$2\\)").
			WithArgs("barcelona", pq.Array(domain.FacilityCategories())).
			WillReturnRows(rows)

		candidates, err := repo.FetchByArea(ctx, "barcelona")

		require.NoError(t, err)
		require.Len(t, candidates, 3)

		first := candidates[0]
		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, "Street Workout Park", first.Name)
		assert.Equal(t, domain.FacilityCategoryCalisthenics, first.Category)
		assert.Nil(t, first.StepCount)
		assert.Equal(t, domain.FacilityTier(0), first.Tier)

		second := candidates[1]
		require.NotNil(t, second.StepCount)
		assert.Equal(t, 120, *second.StepCount)

		third := candidates[2]
		assert.True(t, third.NearParkOrPlaza)
	})

	t.Run("skips rows with invalid coordinates", func(t *testing.T) {
		db, mock, closeFn := newFacilityRepoMock(t)
		defer closeFn()
		repo := postgres.NewFacilityRepository(db)

		rows := sqlmock.NewRows(facilityColumns).
			AddRow(int64(1), "Broken", "bench", nil, true, 95.0, 200.0).
			AddRow(int64(2), "Valid", "bench", nil, true, 41.39, 2.18)

		mock.ExpectQuery("FROM fitness_facilities").
			WithArgs("barcelona", pq.Array(domain.FacilityCategories())).
			WillReturnRows(rows)

		candidates, err := repo.FetchByArea(ctx, "barcelona")

		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, int64(2), candidates[0].ID)
	})

	t.Run("query error surfaces as database error", func(t *testing.T) {
		db, mock, closeFn := newFacilityRepoMock(t)
		defer closeFn()
		repo := postgres.NewFacilityRepository(db)

		mock.ExpectQuery("FROM fitness_facilities").
			WillReturnError(errors.New("connection reset"))

		candidates, err := repo.FetchByArea(ctx, "barcelona")

		assert.Error(t, err)
		assert.Nil(t, candidates)
	})
}
