package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{"", "2021-13-01", "2021/10/09", "yesterday", "2021-02-30"} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestDateOrdering(t *testing.T) {
	from, err := ParseDate("2021-10-09")
	require.NoError(t, err)
	to, err := ParseDate("2021-12-31")
	require.NoError(t, err)

	assert.True(t, Date{2021, time.October, 9}.Between(from, to))
	assert.True(t, Date{2021, time.December, 31}.Between(from, to))
	assert.False(t, Date{2021, time.October, 8}.Between(from, to))
	assert.False(t, Date{2022, time.January, 1}.Between(from, to))
	assert.Equal(t, "2021-10-09", from.String())
}

func TestMatchRecordFollowsExportColumns(t *testing.T) {
	m := Match{
		EventID:      "193514",
		FRBJD:        2459500,
		FRBDate:      Date{2021, time.October, 14},
		FRBTime:      "12:00:00.000000",
		ZTFDatetime:  time.Date(2021, 10, 14, 12, 43, 12, 0, time.UTC),
		Exposure:     30,
		ZTFJD:        2459500.03,
		DeltaMinutes: 43.2,
	}

	rec := m.Record()
	require.Len(t, rec, len(ExportColumns))
	assert.Equal(t, []string{"193514", "2459500", "2021-10-14", "12:00:00.000000", "2021-10-14 12:43:12.000000", "30", "2459500.03", "43.2"}, rec)
}

func TestDateJSONRoundTrip(t *testing.T) {
	for _, m := range []Match{
		{EventID: "1"},
		{EventID: "2", FRBDate: Date{Year: 2021, Month: time.October, Day: 12}},
	} {
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var got Match
		require.NoError(t, json.Unmarshal(data, &got), string(data))
		assert.Equal(t, m.FRBDate, got.FRBDate)
	}

	data, err := json.Marshal(Match{EventID: "1"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FRB_date":""`)
}
