package harvest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPolicyOutcome(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPolicyOutcome(fmt.Errorf("%w: captcha", ErrSuspectedBlock)))
	assert.True(t, IsPolicyOutcome(fmt.Errorf("%w: no rows", ErrEmptyExtraction)))
	assert.True(t, IsPolicyOutcome(fmt.Errorf("navigate: %w", ErrBrowserFailure)))
	assert.False(t, IsPolicyOutcome(ErrRemoteFetchFailed))
	assert.False(t, IsPolicyOutcome(ErrIdentityNotFound))
	assert.False(t, IsPolicyOutcome(errors.New("other")))
	assert.False(t, IsPolicyOutcome(nil))
}

func TestPreserved(t *testing.T) {
	t.Parallel()

	res := Preserved("scholar", ErrSuspectedBlock)
	assert.Equal(t, "scholar", res.Source)
	assert.ErrorIs(t, res.Preserve, ErrSuspectedBlock)
	assert.Empty(t, res.Items)
}
