package aggregator

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/roster/catalog"
	"roster-optimizer/internal/roster/solver"
)

// ==========================
// Fixtures
// ==========================

func cand(group, id string, value float64, cats ...string) catalog.Candidate {
	return catalog.Candidate{
		ID:         id,
		Name:       "Player " + id,
		Group:      group,
		Value:      value,
		Categories: catalog.NormalizeCategories(cats),
	}
}

func league() map[string][]catalog.Candidate {
	return map[string][]catalog.Candidate{
		"Bears": {
			cand("Bears", "b1", 9, "C", "D"),
			cand("Bears", "b2", 8, "C"),
			cand("Bears", "b3", 7, "D"),
		},
		"Wolves": {
			cand("Wolves", "w1", 10, "C"),
			cand("Wolves", "w2", 8, "C", "D"),
			cand("Wolves", "w3", 5, "D"),
		},
		"Owls": {
			cand("Owls", "o1", 30, "C"),
		},
	}
}

var testReq = solver.Requirement{"C": 1, "D": 1}

// ==========================
// SolveAll
// ==========================

func TestSolveAll_SolvesEveryGroup(t *testing.T) {
	results, err := SolveAll(context.Background(), league(), testReq, Options{
		Parallelism: 2,
		Logger:      logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 17.0, results["Bears"].Total)
	assert.Equal(t, 18.0, results["Wolves"].Total)
	assert.True(t, results["Wolves"].Complete)

	assert.False(t, results["Owls"].Complete)
	assert.Equal(t, solver.MethodGreedy, results["Owls"].Method)
	assert.Equal(t, 30.0, results["Owls"].Total)
}

func TestSolveAll_GroupsAreIsolated(t *testing.T) {
	groups := league()
	results, err := SolveAll(context.Background(), groups, testReq, Options{Parallelism: 3})
	require.NoError(t, err)

	for name, cands := range groups {
		alone := solver.Solve(cands, testReq)
		assert.Equal(t, alone.Total, results[name].Total, name)
		assert.Equal(t, alone.ByID(), results[name].ByID(), name)
		for _, a := range results[name].Assignments {
			assert.Equal(t, name, a.Candidate.Group)
		}
	}
}

func TestSolveAll_SequentialMatchesParallel(t *testing.T) {
	seq, err := SolveAll(context.Background(), league(), testReq, Options{Parallelism: 1})
	require.NoError(t, err)
	par, err := SolveAll(context.Background(), league(), testReq, Options{Parallelism: 8})
	require.NoError(t, err)

	for name := range seq {
		assert.Equal(t, seq[name].Assignments, par[name].Assignments, name)
	}
}

func TestSolveAll_InvalidRequirement(t *testing.T) {
	_, err := SolveAll(context.Background(), league(), solver.Requirement{"C": -2}, Options{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequirement))
}

func TestSolveAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SolveAll(ctx, league(), testReq, Options{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSolveCancelled))
}

func TestSolveAll_NoGroups(t *testing.T) {
	results, err := SolveAll(context.Background(), nil, testReq, Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

// ==========================
// Rank
// ==========================

func TestRank(t *testing.T) {
	results := map[string]solver.Result{
		"b": {Total: 10, Complete: true, Method: solver.MethodExact},
		"a": {Total: 10, Complete: true, Method: solver.MethodExact},
		"c": {Total: 25, Complete: false, Method: solver.MethodGreedy},
		"d": {Total: 3, Complete: true, Method: solver.MethodExact},
	}

	standings := Rank(results)
	require.Len(t, standings, 4)

	var order []string
	for i, s := range standings {
		order = append(order, s.Group)
		assert.Equal(t, i+1, s.Rank)
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, order)
	assert.False(t, standings[0].Complete)
}

func TestToModels(t *testing.T) {
	results, err := SolveAll(context.Background(), league(), testReq, Options{})
	require.NoError(t, err)

	out := ToModels(Rank(results), results)
	require.Len(t, out, 3)
	assert.Equal(t, "Owls", out[0].Group)
	assert.Equal(t, "greedy", out[0].Method)

	wolves := out[1]
	assert.Equal(t, "Wolves", wolves.Group)
	assert.Equal(t, 2, wolves.Rank)
	assert.Equal(t, map[string]int{"C": 1, "D": 1}, wolves.Counts)
	require.Len(t, wolves.Roster, 2)
	assert.Equal(t, "w1", wolves.Roster[0].ID)
	assert.Equal(t, "C", wolves.Roster[0].Category)
	assert.Equal(t, "C,D", wolves.Roster[1].Categories)
}

// ==========================
// Export / report
// ==========================

func TestWriteCSV(t *testing.T) {
	results, err := SolveAll(context.Background(), map[string][]catalog.Candidate{
		"Wolves": league()["Wolves"],
	}, testReq, Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ExportRows(Rank(results), results)))

	expected := "Team,Player,Assigned Position,Eligible Positions,FPts,Total Team FPts\n" +
		"Wolves,Player w1,C,C,10.00,18.00\n" +
		"Wolves,Player w2,D,\"C,D\",8.00,18.00\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteReport(t *testing.T) {
	results, err := SolveAll(context.Background(), league(), testReq, Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Rank(results), results, testReq, []string{"D", "C"}))
	out := buf.String()

	assert.Contains(t, out, "ROSTER OPTIMIZATION RESULTS")
	assert.Contains(t, out, "DETAILED BREAKDOWN BY TEAM")
	assert.Contains(t, out, "Wolves - Total FPts: 18.00")
	assert.Contains(t, out, "D:1 C:1")
	assert.Contains(t, out, "greedy (incomplete)")
	assert.Contains(t, out, "(eligible: C,D       )   8.00 FPts")

	// configured category order drives the breakdown
	bears := out[strings.Index(out, "Bears - Total"):]
	assert.Less(t, strings.Index(bears, "  D (1):"), strings.Index(bears, "  C (1):"))
}

func TestCategoryOrder(t *testing.T) {
	req := solver.Requirement{"C": 1, "D": 1, "G": 1}
	assert.Equal(t, []string{"G", "C", "D"}, categoryOrder(req, []string{"G", "X", "G"}))
	assert.Equal(t, []string{"C", "D", "G"}, categoryOrder(req, nil))
}
