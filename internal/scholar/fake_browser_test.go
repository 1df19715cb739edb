package scholar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// fakeBrowser simulates a profile page whose table grows by step rows per click
// until growthClicks clicks have happened.
type fakeBrowser struct {
	mu sync.Mutex

	page         string
	rows         int
	step         int
	growthClicks int
	noMore       bool
	disabledFor  int
	consent      bool

	navigateErr error
	htmlErr     error

	calls          []string
	clicks         int
	countCalls     int
	enabledChecks  int
	screenshots    []bool
	closed         bool
	consentClicked bool
}

func (f *fakeBrowser) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeBrowser) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("navigate " + url)
	return f.navigateErr
}

func (f *fakeBrowser) WaitVisible(_ context.Context, sel string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("wait " + sel)
	if sel == DefaultSelectors().Consent && !f.consent {
		return context.DeadlineExceeded
	}
	return nil
}

func (f *fakeBrowser) Click(_ context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("click " + sel)
	f.clicks++
	if f.clicks <= f.growthClicks {
		f.rows += f.step
	}
	return nil
}

func (f *fakeBrowser) ClickAndWaitNavigation(_ context.Context, sel string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("consent " + sel)
	f.consentClicked = true
	return nil
}

func (f *fakeBrowser) Count(_ context.Context, sel string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	switch sel {
	case DefaultSelectors().Row:
		return f.rows, nil
	case DefaultSelectors().More:
		if f.noMore {
			return 0, nil
		}
		return 1, nil
	}
	return 0, fmt.Errorf("unexpected selector %s", sel)
}

func (f *fakeBrowser) Enabled(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabledChecks++
	if f.disabledFor > 0 {
		f.disabledFor--
		return false, nil
	}
	return true, nil
}

func (f *fakeBrowser) HTML(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("html")
	if f.htmlErr != nil {
		return "", f.htmlErr
	}
	if f.page != "" {
		return f.page, nil
	}
	return profilePage(f.rows), nil
}

func (f *fakeBrowser) Screenshot(_ context.Context, fullPage bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshots = append(f.screenshots, fullPage)
	return []byte("png"), nil
}

func (f *fakeBrowser) MoveMouse(context.Context, float64, float64) error { return nil }

func (f *fakeBrowser) Scroll(context.Context, float64) error { return nil }

func (f *fakeBrowser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBrowser) clickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clicks
}

func profilePage(rows int) string {
	var b strings.Builder
	b.WriteString(`<html><body><table><tbody id="gsc_a_b">`)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, `<tr class="gsc_a_tr"><td class="gsc_a_t"><a class="gsc_a_at" href="/citations?view_op=view_citation&amp;citation_for_view=x:%d">Paper %d</a>`+
			`<div class="gs_gray">A Author, B Author</div><div class="gs_gray">Journal %d, 2021</div></td>`+
			`<td class="gsc_a_y"><span class="gsc_a_h">2021</span></td></tr>`, i, i, i)
	}
	b.WriteString(`</tbody></table><button id="gsc_bpf_more">Show more</button></body></html>`)
	return b.String()
}

type recordingDumper struct {
	names []string
	pages map[string]string
	err   error
}

func (d *recordingDumper) Dump(_ context.Context, name, html string, _ []byte) ([]string, error) {
	d.names = append(d.names, name)
	if d.pages == nil {
		d.pages = map[string]string{}
	}
	d.pages[name] = html
	if d.err != nil {
		return nil, d.err
	}
	return []string{name + ".html", name + ".png"}, nil
}

var errBoom = errors.New("boom")
