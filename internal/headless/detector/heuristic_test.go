package detector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeuristic_Detect_UnusualTraffic(t *testing.T) {
	t.Parallel()

	h, err := NewHeuristic(nil)
	require.NoError(t, err)
	match, blocked := h.Detect(`<html><body>Our systems have detected UNUSUAL
		traffic from your computer network.</body></html>`)
	require.True(t, blocked)
	require.Equal(t, "UNUSUAL\n\t\ttraffic", match)
}

func TestHeuristic_Detect_Captcha(t *testing.T) {
	t.Parallel()

	h, err := NewHeuristic(nil)
	require.NoError(t, err)
	_, blocked := h.Detect(`<div id="recaptcha" class="g-recaptcha"></div>`)
	require.True(t, blocked)
}

func TestHeuristic_Detect_CleanProfile(t *testing.T) {
	t.Parallel()

	h, err := NewHeuristic(nil)
	require.NoError(t, err)
	_, blocked := h.Detect(`<table id="gsc_a_t"><tbody id="gsc_a_b"><tr class="gsc_a_tr"><td>Deep learning</td></tr></tbody></table>`)
	require.False(t, blocked)
}

func TestHeuristic_Detect_EmptyPage(t *testing.T) {
	t.Parallel()

	h, err := NewHeuristic(nil)
	require.NoError(t, err)
	_, blocked := h.Detect("")
	require.False(t, blocked)
}

func TestHeuristic_CustomPatterns(t *testing.T) {
	t.Parallel()

	h, err := NewHeuristic([]string{"access\\s+denied", " "})
	require.NoError(t, err)
	_, blocked := h.Detect("Sorry, ACCESS DENIED")
	require.True(t, blocked)
	_, blocked = h.Detect("sorry")
	require.False(t, blocked, "custom patterns replace the defaults")
}

func TestNewHeuristic_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewHeuristic([]string{"("})
	require.Error(t, err)

	_, err = NewHeuristic([]string{"  "})
	require.Error(t, err)
}
