package client

import "context"

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// RootScope covers the whole origin so the background worker intercepts push
// events for every page of the application.
const RootScope = "/"

// Platform is the browser surface the manager drives: capability probing,
// the permission prompt, and worker registration. A session on a runtime
// without push capability never transitions out of unsupported.
type Platform interface {
	Supported() bool
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Register(ctx context.Context, scope string) (Registration, error)
	Ready(ctx context.Context) (Registration, error)
}

type Registration interface {
	Subscribe(ctx context.Context, opts SubscribeOptions) (Subscription, error)
	// Subscription returns the live subscription, or nil when none exists.
	Subscription(ctx context.Context) (Subscription, error)
}

type SubscribeOptions struct {
	UserVisibleOnly      bool
	ApplicationServerKey []byte
}

// Subscription is the platform's own push channel object. It is the source
// of truth for subscribed-ness; anything the manager caches is a view.
type Subscription interface {
	Endpoint() string
	Keys() Keys
	Unsubscribe(ctx context.Context) error
}

type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}
