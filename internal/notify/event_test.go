package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotEventAttributes(t *testing.T) {
	t.Parallel()

	attrs := SnapshotEvent{Source: "scholar"}.Attributes()
	assert.Equal(t, map[string]string{"source": "scholar"}, attrs)

	attrs = SnapshotEvent{Source: "openalex", RunID: "r1"}.Attributes()
	assert.Equal(t, "r1", attrs["run_id"])
}
