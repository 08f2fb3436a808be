package obslog

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueryQuotesTableName(t *testing.T) {
	assert.Equal(t,
		`SELECT field, obsjd, obs_datetime, exptime FROM "ztf"."observations" WHERE obs_date = $1 ORDER BY obsjd, field`,
		buildQuery("ztf.observations"))
	assert.Contains(t, buildQuery(`obs"; drop table x`), `"obs""; drop table x"`)
}

// Runs only against a live database, for example:
//
//	SAMESKY_TEST_POSTGRES_URL=postgres://localhost/samesky go test ./internal/obslog
func TestPostgresProviderIntegration(t *testing.T) {
	url := os.Getenv("SAMESKY_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("SAMESKY_TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()
	p, err := NewPostgresProvider(ctx, PostgresConfig{URL: url})
	require.NoError(t, err)
	defer p.Close()

	res, err := p.ForDate(ctx, mustDate(t, "1970-01-01"))
	require.NoError(t, err)
	assert.NotEqual(t, StatusMalformed, res.Status)
}
