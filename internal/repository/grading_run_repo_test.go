package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nbgrade/nbgrade-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GradingRun{}))
	return db
}

func TestGradingRunRepositoryCreateAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewGradingRunRepository(db)

	result := models.GradingResult{TotalScore: 11, MaxScore: 20, FinalPercentage: 55}
	payload, err := json.Marshal(result)
	require.NoError(t, err)

	run := models.GradingRun{
		TotalScore:      result.TotalScore,
		MaxScore:        result.MaxScore,
		FinalPercentage: result.FinalPercentage,
		DaysLate:        1,
		Result:          datatypes.JSON(payload),
	}
	require.NoError(t, repo.Create(context.Background(), &run))
	require.NotZero(t, run.ID)

	runs, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.InDelta(t, 11.0, runs[0].TotalScore, 1e-9)

	var stored models.GradingResult
	require.NoError(t, json.Unmarshal(runs[0].Result, &stored))
	require.InDelta(t, 55.0, stored.FinalPercentage, 1e-9)
}

func TestGradingRunRepositoryListDefaultsLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewGradingRunRepository(db)

	runs, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, runs)
}
