// internal/workers/roster/solve-league/handler_test.go
package solveleague

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/models"
	"roster-optimizer/internal/roster/catalog"
	"roster-optimizer/internal/roster/solver"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		Mode:        solver.ModeExact,
		TimeLimit:   5 * time.Second,
		Parallelism: 2,
		Requirement: solver.Requirement{"C": 1, "D": 1},
		Columns:     catalog.DefaultColumns(),
	}
}

func createTestHandler(t *testing.T, db *sql.DB) *Handler {
	return NewHandler(createTestConfig(), db, nil, logger.NewTestLogger(t))
}

func row(id, group, positions string, fpts interface{}) map[string]interface{} {
	return map[string]interface{}{
		"ID":       id,
		"Player":   "Player " + id,
		"Status":   group,
		"Position": positions,
		"FPts":     fpts,
	}
}

func createInput() *Input {
	return &Input{
		Records: []map[string]interface{}{
			row("b1", "Bears", "C,D", 9.0),
			row("b2", "Bears", "C", 8.0),
			row("b3", "Bears", "D", "7"),
			row("w1", "Wolves", "C", 10.0),
			row("w2", "Wolves", "C,D", 8.0),
			row("w3", "Wolves", "D", 5.0),
			row("x1", "Wolves", "", 50.0),
		},
	}
}

func expectAssignment(mock sqlmock.Sqlmock, group, id, category string, value float64, eligible string) {
	mock.ExpectExec("INSERT INTO roster_assignments").
		WithArgs(sqlmock.AnyArg(), group, id, "Player "+id, category, value, eligible).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_SolvesAndRanks(t *testing.T) {
	output, err := createTestHandler(t, nil).Execute(context.Background(), createInput())
	require.NoError(t, err)

	_, err = uuid.Parse(output.RunID)
	assert.NoError(t, err)
	assert.False(t, output.Persisted)

	require.Len(t, output.Standings, 2)
	assert.Equal(t, "Wolves", output.Standings[0].Group)
	assert.Equal(t, 18.0, output.Standings[0].Total)
	assert.Equal(t, 1, output.Standings[0].Rank)
	assert.Equal(t, "Bears", output.Standings[1].Group)
	assert.Equal(t, 17.0, output.Standings[1].Total)
	assert.Equal(t, "exact", output.Standings[1].Method)

	require.Len(t, output.Rejected, 1)
	assert.Equal(t, models.RejectedRecord{
		Row:    7,
		ID:     "x1",
		Code:   string(apperrors.ErrCodeMissingRequiredField),
		Reason: "Required field missing: field: Position, row: 7",
	}, output.Rejected[0])

	lines := strings.Split(strings.TrimSpace(output.ExportCSV), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Team,Player,Assigned Position,Eligible Positions,FPts,Total Team FPts", lines[0])
	assert.Equal(t, "Wolves,Player w1,C,C,10.00,18.00", lines[1])
	assert.Equal(t, "Bears,Player b2,C,C,8.00,17.00", lines[4])
}

func TestHandler_Execute_InlineCSV(t *testing.T) {
	input := &Input{
		CSV: "ID,Player,Team,Position,Status,Roster Status,FPts\n" +
			"a1,Connor,EDM,C,Oilers Fans,Act,120.5\n" +
			"a2,Leon,EDM,\"C,D\",Oilers Fans,Act,101\n" +
			"b1,Cale,COL,D,Avs Fans,Res,80\n",
		Mode: "greedy",
	}

	output, err := createTestHandler(t, nil).Execute(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, output.Standings, 2)
	assert.Equal(t, "Oilers Fans", output.Standings[0].Group)
	assert.Equal(t, 221.5, output.Standings[0].Total)
	assert.True(t, output.Standings[0].Complete)
	assert.Equal(t, "greedy", output.Standings[0].Method)
	assert.False(t, output.Standings[1].Complete)
	assert.Empty(t, output.Rejected)
}

func TestHandler_Execute_RequirementOverride(t *testing.T) {
	input := createInput()
	input.Requirement = []models.CapacitySlot{{Category: "C", Slots: 2}}

	output, err := createTestHandler(t, nil).Execute(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, output.Standings, 2)
	assert.Equal(t, "Wolves", output.Standings[0].Group)
	assert.Equal(t, 18.0, output.Standings[0].Total)
	assert.Equal(t, map[string]int{"C": 2}, output.Standings[0].Counts)
	assert.Equal(t, 17.0, output.Standings[1].Total)
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "no records and no csv",
			input:        &Input{},
			expectedCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:         "strict mode rejects bad record",
			input:        func() *Input { in := createInput(); in.Strict = true; return in }(),
			expectedCode: apperrors.ErrCodeMissingRequiredField,
		},
		{
			name: "duplicate id in strict mode",
			input: &Input{
				Records: []map[string]interface{}{row("a", "Bears", "C", 1.0), row("a", "Bears", "D", 2.0)},
				Strict:  true,
			},
			expectedCode: apperrors.ErrCodeDuplicateCandidate,
		},
		{
			name:         "csv without value column",
			input:        &Input{CSV: "ID,Player,Status,Position\na,b,c,C\n"},
			expectedCode: apperrors.ErrCodeMissingRequiredField,
		},
		{
			name:         "negative slots",
			input:        &Input{Records: createInput().Records, Requirement: []models.CapacitySlot{{Category: "C", Slots: -3}}},
			expectedCode: apperrors.ErrCodeInvalidRequirement,
		},
		{
			name:         "unknown mode",
			input:        &Input{Records: createInput().Records, Mode: "random"},
			expectedCode: apperrors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := createTestHandler(t, nil).Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, tt.expectedCode, apperrors.Normalize(err).Code)
		})
	}
}

// ==========================
// Persistence Tests
// ==========================

func TestHandler_Execute_PersistsRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO roster_runs").
		WithArgs(sqlmock.AnyArg(), "exact", int64(2), int64(6), int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO roster_standings").
		WithArgs(sqlmock.AnyArg(), "Wolves", int64(1), 18.0, true, "exact").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAssignment(mock, "Wolves", "w1", "C", 10, "C")
	expectAssignment(mock, "Wolves", "w2", "D", 8, "C,D")
	mock.ExpectExec("INSERT INTO roster_standings").
		WithArgs(sqlmock.AnyArg(), "Bears", int64(2), 17.0, true, "exact").
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAssignment(mock, "Bears", "b1", "D", 9, "C,D")
	expectAssignment(mock, "Bears", "b2", "C", 8, "C")
	mock.ExpectCommit()

	output, err := createTestHandler(t, db).Execute(context.Background(), createInput())
	require.NoError(t, err)
	assert.True(t, output.Persisted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_PersistFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO roster_runs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO roster_standings").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	output, err := createTestHandler(t, db).Execute(context.Background(), createInput())
	require.Error(t, err)
	assert.Nil(t, output)

	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeResultPersistFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_BeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	_, err = createTestHandler(t, db).Execute(context.Background(), createInput())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeResultPersistFailed))
}

// ==========================
// Helper Tests
// ==========================

func TestToRecords(t *testing.T) {
	records := toRecords([]map[string]interface{}{{
		"ID":       "a",
		"FPts":     12.5,
		"Position": []interface{}{"C", "LW"},
		"Team":     nil,
		"Active":   true,
	}})

	require.Len(t, records, 1)
	assert.Equal(t, catalog.Record{
		"ID":       "a",
		"FPts":     "12.5",
		"Position": "C,LW",
		"Team":     "",
		"Active":   "true",
	}, records[0])
}
