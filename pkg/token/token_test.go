package token_test

import (
	"testing"
	"time"

	"github.com/aibekzh/fleet-dispatch/pkg/token"
	"github.com/aibekzh/fleet-dispatch/pkg/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	v := token.NewVerifier("test-secret")
	subject := uuid.MustNew()

	raw, err := v.Issue(subject, "DRIVER", time.Hour)
	require.NoError(t, err)

	gotSubject, role, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, subject, gotSubject)
	assert.Equal(t, "DRIVER", role)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := token.NewVerifier("test-secret")

	raw, err := v.Issue(uuid.MustNew(), "DISPATCHER", -time.Minute)
	require.NoError(t, err)

	_, _, err = v.Verify(raw)
	require.ErrorIs(t, err, token.ErrExpiredToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	raw, err := token.NewVerifier("secret-a").Issue(uuid.MustNew(), "DRIVER", time.Hour)
	require.NoError(t, err)

	_, _, err = token.NewVerifier("secret-b").Verify(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	v := token.NewVerifier("test-secret")

	for _, raw := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, _, err := v.Verify(raw)
		assert.ErrorIs(t, err, token.ErrInvalidToken, "input %q", raw)
	}
}
