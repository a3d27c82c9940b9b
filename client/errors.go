package client

import "errors"

// Subscribe/unsubscribe outcomes surfaced to the UI. Each one is recovered
// at the operation boundary; none of them leaves partial state behind except
// ErrPersistFailed, where the browser-side subscription is kept and
// reconciled on the next CheckSubscription.
var (
	ErrUnauthenticated    = errors.New("no signed-in identity")
	ErrPermissionDenied   = errors.New("notification permission denied")
	ErrRegistrationFailed = errors.New("service worker registration failed")
	ErrKeyFetchFailed     = errors.New("failed to fetch server public key")
	ErrPersistFailed      = errors.New("failed to save subscription")
	ErrBusy               = errors.New("another subscription change is in flight")
)
