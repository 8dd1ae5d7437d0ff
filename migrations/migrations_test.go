package migrations

import (
	"io/fs"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	up, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	down, err := fs.Glob(FS, "*.down.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, up)
	assert.Len(t, down, len(up))
}

func TestBookingOverlapConstraintIsPerDay(t *testing.T) {
	raw, err := fs.ReadFile(FS, "000001_init.up.sql")
	require.NoError(t, err)

	constraint := regexp.MustCompile(`(?s)CONSTRAINT bookings_no_overlap EXCLUDE USING gist \((.*?)\) WHERE`).FindSubmatch(raw)
	require.NotNil(t, constraint)
	body := string(constraint[1])
	assert.Contains(t, body, "service_id WITH =")
	assert.Contains(t, body, "date WITH =")
	assert.Contains(t, body, "tstzrange(start_time, end_time, '[)') WITH &&")
}
