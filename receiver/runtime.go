package receiver

import "context"

// Runtime is the background execution context the receiver runs inside. It
// has no guaranteed lifetime, so handlers hold nothing across events; the
// caller keeps the context open until a handler returns (waitUntil).
type Runtime interface {
	SkipWaiting() error
	ClaimClients(ctx context.Context) error
	ShowNotification(ctx context.Context, title string, opts Options) error
	// MatchWindows enumerates all open application windows, including ones
	// not controlled by this worker version.
	MatchWindows(ctx context.Context) ([]Window, error)
	OpenWindow(ctx context.Context, url string) error
}

type Window interface {
	URL() string
	Navigate(ctx context.Context, url string) error
	Focus(ctx context.Context) error
}

type Options struct {
	Body               string
	Icon               string
	Badge              string
	Vibrate            []int
	Data               Data
	Actions            []Action
	RequireInteraction bool
}

// Data rides along as opaque metadata on the rendered notification and comes
// back on click events.
type Data struct {
	URL           string `json:"url"`
	DateOfArrival int64  `json:"dateOfArrival"`
}

type Action struct {
	Action string
	Title  string
}

// ClickedNotification is a rendered notification the user interacted with.
type ClickedNotification interface {
	Action() string
	Data() Data
	Close()
}
