package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultAcceptLanguage, cfg.AcceptLanguage)
	assert.Equal(t, DefaultLang, cfg.Lang)
	assert.Equal(t, 1366, cfg.WindowWidth)
	assert.Equal(t, 900, cfg.WindowHeight)
	assert.Equal(t, DefaultNavigationTimeout, cfg.NavigationTimeout)
	assert.Equal(t, WaitNetworkIdle, cfg.WaitStrategy)

	cfg = Config{UserAgent: "ua", WindowWidth: 800, WaitStrategy: WaitReady}.withDefaults()
	assert.Equal(t, "ua", cfg.UserAgent)
	assert.Equal(t, 800, cfg.WindowWidth)
	assert.Equal(t, WaitReady, cfg.WaitStrategy)
}

func TestAllocatorOptionsGrowWithProfile(t *testing.T) {
	t.Parallel()

	base := allocatorOptions(Config{Headless: true}.withDefaults())
	withProfile := allocatorOptions(Config{
		Headless:         true,
		UserDataDir:      "/tmp/profile",
		ProfileDirectory: "Default",
		ExecPath:         "/usr/bin/chromium",
	}.withDefaults())
	assert.Len(t, withProfile, len(base)+3)

	// profile-directory without a user data dir is ignored.
	orphan := allocatorOptions(Config{ProfileDirectory: "Default"}.withDefaults())
	assert.Len(t, orphan, len(base))
}

func TestNewChromedpRejectsUnknownWaitStrategy(t *testing.T) {
	t.Parallel()

	_, err := NewChromedp(context.Background(), Config{WaitStrategy: "domcontentloaded"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wait strategy")
}

func TestSelectorExpressionsQuoteSelectors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `document.querySelectorAll("tr.gsc_a_tr").length`, countExpression("tr.gsc_a_tr"))
	assert.Equal(t, `"form[action*=\"consent\"] button"`, jsString(`form[action*="consent"] button`))
	assert.Contains(t, enabledExpression("#gsc_bpf_more"), `document.querySelector("#gsc_bpf_more")`)
	assert.Contains(t, enabledExpression("#gsc_bpf_more"), "!el.disabled")
}

func TestLifecycleWaiterRequiresFreshDocument(t *testing.T) {
	t.Parallel()

	w := newLifecycleWaiter("networkIdle")
	w.handle(&page.EventLifecycleEvent{Name: "networkIdle"})
	select {
	case <-w.done:
		t.Fatal("idle from the previous document must be ignored")
	default:
	}

	w.handle("unrelated event")
	w.handle(&page.EventLifecycleEvent{Name: "init"})
	w.handle(&page.EventLifecycleEvent{Name: "load"})
	w.handle(&page.EventLifecycleEvent{Name: "networkIdle"})
	w.handle(&page.EventLifecycleEvent{Name: "networkIdle"})

	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("waiter did not fire")
	}
}
