package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsOrderedSchema(t *testing.T) {
	names, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_create_customers.up.sql",
		"002_create_reviews.up.sql",
	}, names)

	reviews, err := fs.ReadFile(FS, "002_create_reviews.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(reviews), "REFERENCES customers")
	assert.Contains(t, string(reviews), "GENERATED ALWAYS AS IDENTITY")
}
