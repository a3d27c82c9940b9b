package receiver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testOrigin  = "https://app.example"
	testAppName = "VRK Solutions"
	testAppIcon = "/favicon.ico"
)

type fakeWindow struct {
	url         string
	navigatedTo string
	focused     bool
}

func (w *fakeWindow) URL() string { return w.url }
func (w *fakeWindow) Navigate(ctx context.Context, url string) error {
	w.navigatedTo = url
	return nil
}
func (w *fakeWindow) Focus(ctx context.Context) error {
	w.focused = true
	return nil
}

type fakeRuntime struct {
	skippedWaiting bool
	claimed        bool

	shownTitle string
	shownOpts  Options
	shown      bool

	windows []*fakeWindow
	opened  []string
}

func (rt *fakeRuntime) SkipWaiting() error { rt.skippedWaiting = true; return nil }
func (rt *fakeRuntime) ClaimClients(ctx context.Context) error {
	rt.claimed = true
	return nil
}
func (rt *fakeRuntime) ShowNotification(ctx context.Context, title string, opts Options) error {
	rt.shown = true
	rt.shownTitle = title
	rt.shownOpts = opts
	return nil
}
func (rt *fakeRuntime) MatchWindows(ctx context.Context) ([]Window, error) {
	out := make([]Window, len(rt.windows))
	for i, w := range rt.windows {
		out[i] = w
	}
	return out, nil
}
func (rt *fakeRuntime) OpenWindow(ctx context.Context, url string) error {
	rt.opened = append(rt.opened, url)
	return nil
}

type fakeClick struct {
	action string
	data   Data
	closed bool
}

func (c *fakeClick) Action() string { return c.action }
func (c *fakeClick) Data() Data     { return c.data }
func (c *fakeClick) Close()         { c.closed = true }

func newTestReceiver(rt *fakeRuntime) *Receiver {
	return New(zap.NewNop(), rt, testOrigin, testAppName, testAppIcon)
}

func TestInstallTakesControlImmediately(t *testing.T) {
	rt := &fakeRuntime{}
	r := newTestReceiver(rt)

	require.NoError(t, r.HandleInstall())
	assert.True(t, rt.skippedWaiting)
}

func TestActivateClaimsOpenWindows(t *testing.T) {
	rt := &fakeRuntime{}
	r := newTestReceiver(rt)

	require.NoError(t, r.HandleActivate(context.Background()))
	assert.True(t, rt.claimed)
}

func TestPushRendersStructuredPayload(t *testing.T) {
	rt := &fakeRuntime{}
	r := newTestReceiver(rt)

	body := []byte(`{"title":"Exam results","body":"10th class results are out","url":"/category/10th"}`)
	require.NoError(t, r.HandlePush(context.Background(), body))

	require.True(t, rt.shown)
	assert.Equal(t, "Exam results", rt.shownTitle)
	assert.Equal(t, "10th class results are out", rt.shownOpts.Body)
	assert.Equal(t, testAppIcon, rt.shownOpts.Icon) // not in payload, default kept
	assert.Equal(t, "/category/10th", rt.shownOpts.Data.URL)
	assert.NotZero(t, rt.shownOpts.Data.DateOfArrival)
	assert.Equal(t, []int{100, 50, 100}, rt.shownOpts.Vibrate)
	assert.True(t, rt.shownOpts.RequireInteraction)
	require.Len(t, rt.shownOpts.Actions, 2)
	assert.Equal(t, ActionOpen, rt.shownOpts.Actions[0].Action)
	assert.Equal(t, ActionDismiss, rt.shownOpts.Actions[1].Action)
}

func TestPushFallsBackToPlainText(t *testing.T) {
	rt := &fakeRuntime{}
	r := newTestReceiver(rt)

	require.NoError(t, r.HandlePush(context.Background(), []byte("exam hall tickets released")))

	require.True(t, rt.shown)
	assert.Equal(t, testAppName, rt.shownTitle)
	assert.Equal(t, "exam hall tickets released", rt.shownOpts.Body)
	assert.Equal(t, testAppIcon, rt.shownOpts.Icon)
	assert.Equal(t, "/", rt.shownOpts.Data.URL)
}

func TestPushWithEmptyBodyUsesDefaults(t *testing.T) {
	rt := &fakeRuntime{}
	r := newTestReceiver(rt)

	require.NoError(t, r.HandlePush(context.Background(), nil))

	require.True(t, rt.shown)
	assert.Equal(t, testAppName, rt.shownTitle)
	assert.Equal(t, "You have a new notification", rt.shownOpts.Body)
}

func TestClickDismissDoesNotNavigate(t *testing.T) {
	w := &fakeWindow{url: testOrigin + "/home"}
	rt := &fakeRuntime{windows: []*fakeWindow{w}}
	r := newTestReceiver(rt)

	click := &fakeClick{action: ActionDismiss, data: Data{URL: "/category/10th"}}
	require.NoError(t, r.HandleNotificationClick(context.Background(), click))

	assert.True(t, click.closed)
	assert.Empty(t, w.navigatedTo)
	assert.False(t, w.focused)
	assert.Empty(t, rt.opened)
}

func TestClickFocusesExistingWindow(t *testing.T) {
	foreign := &fakeWindow{url: "https://elsewhere.example/page"}
	ours := &fakeWindow{url: testOrigin + "/home"}
	rt := &fakeRuntime{windows: []*fakeWindow{foreign, ours}}
	r := newTestReceiver(rt)

	click := &fakeClick{data: Data{URL: "/category/10th"}}
	require.NoError(t, r.HandleNotificationClick(context.Background(), click))

	assert.True(t, click.closed)
	assert.Equal(t, "/category/10th", ours.navigatedTo)
	assert.True(t, ours.focused)
	assert.Empty(t, foreign.navigatedTo)
	assert.Empty(t, rt.opened)
}

func TestClickOpensNewWindowWhenNoneMatch(t *testing.T) {
	foreign := &fakeWindow{url: "https://elsewhere.example/page"}
	rt := &fakeRuntime{windows: []*fakeWindow{foreign}}
	r := newTestReceiver(rt)

	click := &fakeClick{action: ActionOpen, data: Data{URL: "/category/10th"}}
	require.NoError(t, r.HandleNotificationClick(context.Background(), click))

	assert.Equal(t, []string{"/category/10th"}, rt.opened)
}

func TestClickWithNoMetadataDefaultsToRoot(t *testing.T) {
	rt := &fakeRuntime{}
	r := newTestReceiver(rt)

	click := &fakeClick{}
	require.NoError(t, r.HandleNotificationClick(context.Background(), click))

	assert.Equal(t, []string{"/"}, rt.opened)
}
