package footprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fieldTable = `# ztf primary grid excerpt
field, ra, dec, ebv
600, 180.0, 30.0, 0.01
601, 187.5, 30.0, 0.02
700, 10.0, -20.0, 0.03
799, 359.0, 0.0, 0.00
`

func newTestResolver(t *testing.T) *GridResolver {
	t.Helper()
	fields, err := ReadFields(strings.NewReader(fieldTable))
	require.NoError(t, err)
	require.Len(t, fields, 4)
	r, err := NewGridResolver(fields, Config{HalfWidthDeg: 3.75, HalfHeightDeg: 3.65})
	require.NoError(t, err)
	return r
}

func TestResolveFieldCenter(t *testing.T) {
	r := newTestResolver(t)
	got, err := r.Resolve(180, 30)
	require.NoError(t, err)
	assert.Equal(t, []int{600}, got)
}

func TestResolveOverlapReturnsSortedIDs(t *testing.T) {
	r := newTestResolver(t)
	got, err := r.Resolve(183.75, 30)
	require.NoError(t, err)
	assert.Equal(t, []int{600, 601}, got)
}

func TestResolveOutsideAllFields(t *testing.T) {
	r := newTestResolver(t)
	got, err := r.Resolve(90, 60)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveWrapsRightAscension(t *testing.T) {
	r := newTestResolver(t)
	got, err := r.Resolve(1.0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []int{799}, got)

	got, err = r.Resolve(-1.0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []int{799}, got)
}

func TestResolveRejectsInvalidDeclination(t *testing.T) {
	r := newTestResolver(t)
	_, err := r.Resolve(10, 95)
	assert.Error(t, err)
}

func TestReadFieldsRequiresColumns(t *testing.T) {
	_, err := ReadFields(strings.NewReader("id,ra\n1,2\n"))
	assert.Error(t, err)
}
