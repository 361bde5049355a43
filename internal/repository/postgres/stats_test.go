package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexis/internal/domain"
)

var learnerStatsColumns = []string{
	"user_id", "total_xp", "level", "current_streak", "longest_streak", "last_activity_at", "updated_at",
}

func TestStatsRepo_Get(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		forUpdate   bool
		mockRows    *sqlmock.Rows
		expectedNil bool
	}{
		{
			name:     "existing learner",
			mockRows: sqlmock.NewRows(learnerStatsColumns).AddRow(123, 260, 3, 2, 5, now, now),
		},
		{
			name:      "existing learner locked",
			forUpdate: true,
			mockRows:  sqlmock.NewRows(learnerStatsColumns).AddRow(123, 260, 3, 2, 5, now, now),
		},
		{
			name:        "unknown learner",
			mockRows:    sqlmock.NewRows(learnerStatsColumns),
			expectedNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			repo := NewStatsRepo(db)

			query := "SELECT user_id, total_xp, level, current_streak, longest_streak, last_activity_at, updated_at FROM learner_stats WHERE user_id = \\$1"
			if tt.forUpdate {
				query += " FOR UPDATE"
			}
			mock.ExpectQuery(query).WithArgs(int64(123)).WillReturnRows(tt.mockRows)

			var stats *domain.LearnerStats
			if tt.forUpdate {
				stats, err = repo.GetForUpdate(context.Background(), 123)
			} else {
				stats, err = repo.Get(context.Background(), 123)
			}

			assert.NoError(t, err)
			if tt.expectedNil {
				assert.Nil(t, stats)
			} else {
				require.NotNil(t, stats)
				assert.Equal(t, 260, stats.TotalXP)
				assert.Equal(t, 3, stats.Level)
				assert.Equal(t, 5, stats.LongestStreak)
				assert.NotNil(t, stats.LastActivityAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStatsRepo_Update(t *testing.T) {
	now := time.Now()
	stats := &domain.LearnerStats{
		UserID:         123,
		TotalXP:        120,
		Level:          2,
		CurrentStreak:  1,
		LongestStreak:  4,
		LastActivityAt: &now,
	}

	tests := []struct {
		name          string
		rowsAffected  int64
		mockError     error
		expectedError bool
	}{
		{name: "updated", rowsAffected: 1},
		{name: "no rows", rowsAffected: 0, expectedError: true},
		{name: "db error", mockError: fmt.Errorf("db error"), expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			exp := mock.ExpectExec("UPDATE learner_stats SET total_xp = \\$2").
				WithArgs(int64(123), 120, 2, 1, 4, sqlmock.AnyArg())
			if tt.mockError != nil {
				exp.WillReturnError(tt.mockError)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))
			}

			err = NewStatsRepo(db).Update(context.Background(), stats)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStatsRepo_Reset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE learner_stats SET total_xp = 0, level = 1").
		WithArgs(int64(123)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewStatsRepo(db).Reset(context.Background(), 123)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
