package stats

import (
	"strings"
	"testing"

	"closedcat/internal/table"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFleissKappaReference(t *testing.T) {
	counts := [][]float64{
		{0, 0, 0, 0, 14},
		{0, 2, 6, 4, 2},
		{0, 0, 3, 5, 6},
		{0, 3, 9, 2, 0},
		{2, 2, 8, 1, 1},
		{7, 7, 0, 0, 0},
		{3, 2, 6, 3, 0},
		{2, 5, 3, 2, 2},
		{6, 5, 2, 1, 0},
		{0, 2, 2, 3, 7},
	}
	k, err := FleissKappa(counts)
	require.NoError(t, err)
	assert.InDelta(t, 0.20993070442195522, k, 1e-9)
}

func TestFleissKappaUnanimous(t *testing.T) {
	k, err := FleissKappa([][]float64{{3, 0}, {0, 3}, {3, 0}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, k)

	single, err := FleissKappa([][]float64{{3}, {3}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, single, "one shared label is still perfect agreement")
}

func TestFleissKappaErrors(t *testing.T) {
	_, err := FleissKappa([][]float64{{3, 0}, {1, 1}})
	assert.ErrorIs(t, err, ErrUnevenRaters)

	_, err = FleissKappa(nil)
	assert.ErrorIs(t, err, ErrDegenerateTable)

	_, err = FleissKappa([][]float64{{1, 0}, {0, 1}})
	assert.ErrorIs(t, err, ErrDegenerateTable, "a single rater cannot agree")
}

func TestNewRatingMatrix(t *testing.T) {
	m := NewRatingMatrix([][]string{
		{"b", "a", "b"},
		{"c", "", "c"},
	})
	assert.Equal(t, []string{"a", "b", "c"}, m.Labels)
	if diff := cmp.Diff([][]float64{{1, 2, 0}, {0, 0, 2}}, m.Counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, m.Raters(0))
	assert.Equal(t, 2, m.Raters(1))

	complete, dropped := m.DropIncomplete()
	assert.Equal(t, 1, dropped)
	assert.Len(t, complete.Counts, 1)
	assert.Equal(t, m.Labels, complete.Labels)
}

const singleAxis = "id\tChristian Axial Code\tSyreen Axial Code\tAnthony Axial Code\tfinal_axial_code\n" +
	"1\tSpatial\tSpatial\tSpatial\tSpatial\n" +
	"2\tTemporal\tTemporal\tTemporal\tTemporal\n" +
	"3\tSpatial\t\tSpatial\tSpatial\n"

func TestSingleAxisMatrix(t *testing.T) {
	tbl, err := table.Parse(strings.NewReader(singleAxis), table.TSV())
	require.NoError(t, err)

	cols := tbl.ColumnsContaining("Axial Code")
	require.Len(t, cols, 3)

	m := SingleAxisMatrix(tbl.Records, cols)
	assert.Equal(t, []string{"Spatial", "Temporal"}, m.Labels)

	m, dropped := m.DropIncomplete()
	assert.Equal(t, 1, dropped)

	k, err := m.Kappa()
	require.NoError(t, err)
	assert.Equal(t, 1.0, k)
}

const dualAxis = "id\tChristian Axial Code Role\tChristian Axial Code Meaning\t" +
	"Syreen Axial Code Role\tSyreen Axial Code Meaning\t" +
	"Anthony Axial Code Role\tAnthony Axial Code Meaning\n" +
	"1\tIndex\tOrdinal\tIndex\tOrdinal\tIndex\tOrdinal\n" +
	"2\tVersion\tLabel\tVersion\tLabel\tVersion\tCount\n" +
	"3\t\t\t\t\t\t\n"

func TestCompositeMatrix(t *testing.T) {
	tbl, err := table.Parse(strings.NewReader(dualAxis), table.TSV())
	require.NoError(t, err)

	pairs := DualAxisPairs([]string{"Christian", "Syreen", "Anthony"})
	assert.Equal(t, AxisPair{Role: "Syreen Axial Code Role", Meaning: "Syreen Axial Code Meaning"}, pairs[1])

	m := CompositeMatrix(tbl.Records, pairs)
	assert.Equal(t, []string{"Index::Ordinal", "Version::Count", "Version::Label"}, m.Labels)
	require.Len(t, m.Counts, 3)
	assert.Equal(t, []float64{0, 1, 2}, m.Counts[1])
	assert.Equal(t, 0, m.Raters(2), "blank annotations are skipped")

	complete, dropped := m.DropIncomplete()
	assert.Equal(t, 1, dropped)

	k, err := complete.Kappa()
	require.NoError(t, err)
	assert.Less(t, k, 1.0)
}

func TestCompositeLabel(t *testing.T) {
	assert.Equal(t, "Role::Meaning", CompositeLabel("Role", "Meaning"))
	assert.Equal(t, "Role::", CompositeLabel("Role", ""))
	assert.Equal(t, "", CompositeLabel("", ""))
}
