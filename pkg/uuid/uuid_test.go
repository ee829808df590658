package uuid_test

import (
	"testing"

	"github.com/aibekzh/fleet-dispatch/pkg/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	u1, err := uuid.New()
	require.NoError(t, err)
	u2, err := uuid.New()
	require.NoError(t, err)

	assert.NotEqual(t, u1, u2)
	assert.False(t, u1.IsNil())

	// version and variant bits
	s := u1.String()
	assert.Len(t, s, 36)
	assert.Equal(t, byte('4'), s[14])
}

func TestParseRoundTrip(t *testing.T) {
	u := uuid.MustNew()

	parsed, err := uuid.Parse(u.String())
	require.NoError(t, err)
	assert.Equal(t, u, parsed)
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"not-a-uuid",
		"123e4567-e89b-12d3-a456",
		"123e4567e89b12d3a456426614174000",
		"zzze4567-e89b-12d3-a456-426614174000",
	}
	for _, c := range cases {
		_, err := uuid.Parse(c)
		assert.Error(t, err, "input %q", c)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	u := uuid.MustNew()

	data, err := u.MarshalJSON()
	require.NoError(t, err)

	var out uuid.UUID
	require.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, u, out)
}
