package crossmatch

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samesky/internal/obslog"
	"samesky/pkg/models"
)

const baseJD = 2459500.0

func newEngine(t *testing.T, fields []int, logs map[string]obslog.Result, threshold float64) (*Engine, *fakeResolver, *fakeProvider) {
	t.Helper()
	res := &fakeResolver{fields: fields}
	prov := &fakeProvider{logs: logs}
	e, err := NewEngine(res, prov, threshold)
	require.NoError(t, err)
	return e, res, prov
}

func TestMatchWithinWindow(t *testing.T) {
	e, _, _ := newEngine(t, []int{600}, map[string]obslog.Result{
		"2021-10-12": obslog.OK([]models.Observation{obsAt(600, baseJD+0.03)}),
	}, 60)

	out, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	require.Len(t, out.Matches, 1)
	m := out.Matches[0]
	assert.InDelta(t, 43.2, m.DeltaMinutes, 1e-3)
	assert.Equal(t, "a1", m.EventID)
	assert.Equal(t, baseJD, m.FRBJD)
	assert.Equal(t, "2021-10-12", m.FRBDate.String())
	assert.InDelta(t, baseJD+0.03, m.ZTFJD, 1e-9)
	assert.Equal(t, 30.0, m.Exposure)
	assert.Equal(t, []int{600}, out.Fields)
}

func TestMatchOutsideWindow(t *testing.T) {
	e, _, _ := newEngine(t, []int{600}, map[string]obslog.Result{
		"2021-10-12": obslog.OK([]models.Observation{obsAt(600, baseJD+0.5)}),
	}, 60)

	out, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	assert.Empty(t, out.Matches)
	assert.False(t, out.Skipped)
}

func TestMatchKeepsSignedDeltaAndPrecedingObservations(t *testing.T) {
	e, _, _ := newEngine(t, []int{600}, map[string]obslog.Result{
		"2021-10-12": obslog.OK([]models.Observation{obsAt(600, baseJD-0.0125), obsAt(600, baseJD+0.0125)}),
	}, 60)

	out, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	require.Len(t, out.Matches, 2)
	assert.InDelta(t, -18.0, out.Matches[0].DeltaMinutes, 1e-6)
	assert.InDelta(t, 18.0, out.Matches[1].DeltaMinutes, 1e-6)
}

func TestMatchThresholdIsStrict(t *testing.T) {
	logs := map[string]obslog.Result{
		"2021-10-12": obslog.OK([]models.Observation{obsAt(600, baseJD+0.0625)}),
	}

	e, _, _ := newEngine(t, []int{600}, logs, 90)
	out, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	assert.Empty(t, out.Matches, "delta equal to the threshold is excluded")

	e, _, _ = newEngine(t, []int{600}, logs, 90.001)
	out, err = e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	assert.Len(t, out.Matches, 1)
}

func TestMatchIgnoresObservationsOfOtherFields(t *testing.T) {
	e, _, _ := newEngine(t, []int{600, 601}, map[string]obslog.Result{
		"2021-10-12": obslog.OK([]models.Observation{
			obsAt(700, baseJD+0.001),
			obsAt(601, baseJD+0.002),
			obsAt(600, baseJD+0.003),
			obsAt(601, baseJD+0.004),
		}),
	}, 60)

	out, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	require.Len(t, out.Matches, 3, "one row per observation, no dedup by field")
	for _, m := range out.Matches {
		assert.NotEqual(t, baseJD+0.001, m.ZTFJD)
	}
	assert.Less(t, out.Matches[0].ZTFJD, out.Matches[1].ZTFJD, "log order preserved")
}

func TestMatchSkipsUnavailableAndMalformedLogs(t *testing.T) {
	e, _, prov := newEngine(t, []int{600}, map[string]obslog.Result{
		"2021-10-13": obslog.Malformed("bad row"),
	}, 60)

	out, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, obslog.StatusUnavailable, out.LogStatus)

	out, err = e.Match(context.Background(), alertAt("a2", baseJD+1))
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, obslog.StatusMalformed, out.LogStatus)
	assert.Equal(t, "bad row", out.SkipReason)
	assert.Equal(t, []string{"2021-10-12", "2021-10-13"}, prov.calls)
}

func TestMatchEmptyLogIsNotASkip(t *testing.T) {
	e, _, _ := newEngine(t, []int{600}, map[string]obslog.Result{"2021-10-12": obslog.OK(nil)}, 60)
	out, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Empty(t, out.Matches)
}

func TestMatchPropagatesResolverFailure(t *testing.T) {
	res := &fakeResolver{err: errBoom}
	prov := &fakeProvider{}
	e, err := NewEngine(res, prov, 60)
	require.NoError(t, err)

	_, err = e.Match(context.Background(), alertAt("a1", baseJD))
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, prov.calls)
}

func TestMatchPropagatesProviderErrors(t *testing.T) {
	prov := &fakeProvider{err: context.Canceled}
	e, err := NewEngine(&fakeResolver{fields: []int{1}}, prov, 60)
	require.NoError(t, err)

	_, err = e.Match(context.Background(), alertAt("a1", baseJD))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMatchRejectsUnknownStatusAndBadJD(t *testing.T) {
	e, _, _ := newEngine(t, []int{600}, map[string]obslog.Result{
		"2021-10-12": {Status: obslog.Status(42)},
		"2021-10-13": obslog.OK([]models.Observation{{FieldID: 600, ObsJD: math.NaN()}}),
	}, 60)

	_, err := e.Match(context.Background(), alertAt("a1", baseJD))
	assert.ErrorIs(t, err, ErrUnexpected)

	_, err = e.Match(context.Background(), alertAt("a2", baseJD+1))
	assert.ErrorIs(t, err, ErrUnexpected)

	bad := alertAt("a3", baseJD)
	bad.DetectionJD = math.Inf(1)
	_, err = e.Match(context.Background(), bad)
	assert.ErrorIs(t, err, ErrUnexpected)
}

func TestMatchIsIdempotent(t *testing.T) {
	e, _, _ := newEngine(t, []int{600, 601}, map[string]obslog.Result{
		"2021-10-12": obslog.OK([]models.Observation{obsAt(601, baseJD+0.01), obsAt(600, baseJD-0.02), obsAt(600, baseJD+0.2)}),
	}, 60)

	first, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	_, err = e.Match(context.Background(), alertAt("other", baseJD+0.1))
	require.NoError(t, err)
	second, err := e.Match(context.Background(), alertAt("a1", baseJD))
	require.NoError(t, err)
	assert.Equal(t, first.Matches, second.Matches)
}

func TestNewEngineValidatesInputs(t *testing.T) {
	_, err := NewEngine(nil, &fakeProvider{}, 60)
	assert.Error(t, err)
	_, err = NewEngine(&fakeResolver{}, &fakeProvider{}, 0)
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)
}
