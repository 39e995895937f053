package ute

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cause := errors.New("socket closed")

	cases := []struct {
		name       string
		err        error
		expectKind error
	}{
		{
			name:       "deadline becomes a connection failure",
			err:        fmt.Errorf("run: %w", context.DeadlineExceeded),
			expectKind: ErrConnection,
		},
		{
			name:       "cancellation becomes a connection failure",
			err:        context.Canceled,
			expectKind: ErrConnection,
		},
		{
			name:       "unexpected failures wrap as scraper errors",
			err:        cause,
			expectKind: ErrScraper,
		},
		{
			name:       "already classified auth errors pass through",
			err:        authErr("nope"),
			expectKind: ErrAuth,
		},
		{
			name:       "already classified connection errors pass through",
			err:        connectionErr(nil, "down"),
			expectKind: ErrConnection,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			got := classify(test.err, "stage")
			require.ErrorIs(t, got, test.expectKind)
		})
	}

	require.Nil(t, classify(nil, "stage"))
}

func TestClassifyPreservesCause(t *testing.T) {
	cause := errors.New("missing element")
	got := classify(cause, "wait for supplies table")
	require.ErrorIs(t, got, cause)
	require.Contains(t, got.Error(), "wait for supplies table")
}

func TestTaxonomyIsDisjoint(t *testing.T) {
	require.NotErrorIs(t, authErr("x"), ErrConnection)
	require.NotErrorIs(t, authErr("x"), ErrScraper)
	require.NotErrorIs(t, connectionErr(nil, "x"), ErrAuth)
	require.NotErrorIs(t, scraperErr(nil, "x"), ErrConnection)
}
