package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/carlmjohnson/requests"
	"github.com/vrksol/pushgate/push"
	"go.uber.org/zap"
)

// State is a cached reflection of the platform's live subscription, never
// authoritative. CheckSubscription recomputes it; IsLoading clears on every
// exit path so the UI is never left spinning.
type State struct {
	IsSupported  bool
	IsSubscribed bool
	IsLoading    bool
	Permission   Permission
}

// Manager orchestrates the subscribe/unsubscribe protocol against the
// platform and keeps the server-side registry in sync over HTTP.
type Manager struct {
	log       *zap.Logger
	platform  Platform
	transport http.RoundTripper
	serverURL string
	token     string

	mu     sync.Mutex
	busy   bool
	userID string
	state  State
}

func NewManager(log *zap.Logger, platform Platform, transport http.RoundTripper, serverURL, token string) *Manager {
	return &Manager{
		log:       log,
		platform:  platform,
		transport: transport,
		serverURL: serverURL,
		token:     token,
		state:     State{IsLoading: true, Permission: PermissionDefault},
	}
}

// SetUser records the signed-in identity; an empty id means signed out.
func (m *Manager) SetUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = userID
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe runs the full handshake: permission, worker registration, key
// fetch, platform subscribe, persist. Steps are strictly sequential; each
// depends on the previous result.
func (m *Manager) Subscribe(ctx context.Context) error {
	if m.user() == "" {
		return ErrUnauthenticated
	}
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	perm, err := m.platform.RequestPermission(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	m.setState(func(s *State) { s.Permission = perm })
	if perm != PermissionGranted {
		// A dismissed prompt is treated the same as an explicit refusal.
		return ErrPermissionDenied
	}

	reg, err := m.platform.Register(ctx, RootScope)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	key, err := m.fetchServerKey(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeyFetchFailed, err)
	}

	sub, err := reg.Subscribe(ctx, SubscribeOptions{
		UserVisibleOnly:      true,
		ApplicationServerKey: key,
	})
	if err != nil {
		return err
	}

	if err := m.persistSubscription(ctx, sub); err != nil {
		// The platform-side subscription stays intact; the mismatch is
		// reconciled by CheckSubscription on the next load.
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	m.setState(func(s *State) { s.IsSubscribed = true })
	m.log.Sugar().Infof("Subscribed endpoint %s", sub.Endpoint())
	return nil
}

// Unsubscribe tears down the platform subscription first; the server-side
// delete is best effort. A dangling registry record self-heals on the next
// failed dispatch.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	reg, err := m.platform.Ready(ctx)
	if err != nil {
		return err
	}
	sub, err := reg.Subscription(ctx)
	if err != nil {
		return err
	}

	if sub != nil {
		if err := sub.Unsubscribe(ctx); err != nil {
			return err
		}
		if err := m.removeSubscription(ctx, sub); err != nil {
			m.log.Sugar().Infow("Failed to remove server-side subscription", "err", err)
		}
	}

	m.setState(func(s *State) { s.IsSubscribed = false })
	return nil
}

// CheckSubscription reconciles the cached state against the platform's live
// subscription. Subscriptions can be invalidated externally without this
// client being told, so this is the only status read that can be trusted.
func (m *Manager) CheckSubscription(ctx context.Context) State {
	supported := m.platform.Supported()

	m.setState(func(s *State) {
		s.IsSupported = supported
		if supported {
			s.Permission = m.platform.Permission()
		}
	})
	if !supported {
		m.setState(func(s *State) { s.IsLoading = false })
		return m.State()
	}

	reg, err := m.platform.Ready(ctx)
	if err == nil {
		var sub Subscription
		if sub, err = reg.Subscription(ctx); err == nil {
			m.setState(func(s *State) { s.IsSubscribed = sub != nil })
		}
	}
	if err != nil {
		m.log.Sugar().Infow("Failed to check subscription", "err", err)
	}

	m.setState(func(s *State) { s.IsLoading = false })
	return m.State()
}

// SendTest asks the server to push a test notification back to the current
// user's own subscriptions.
func (m *Manager) SendTest(ctx context.Context) error {
	userID := m.user()
	if userID == "" {
		return ErrUnauthenticated
	}

	return requests.URL(m.serverURL).
		Transport(m.transport).
		Bearer(m.token).
		BodyJSON(map[string]any{
			"action": "send",
			"userId": userID,
			"title":  "Test Notification",
			"body":   "This is a test notification!",
		}).
		Fetch(ctx)
}

func (m *Manager) fetchServerKey(ctx context.Context) ([]byte, error) {
	var resp struct {
		PublicKey string `json:"publicKey"`
	}
	err := requests.URL(m.serverURL).
		Transport(m.transport).
		Bearer(m.token).
		BodyJSON(map[string]any{"action": "get-vapid-key"}).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return push.DecodeServerKey(resp.PublicKey)
}

func (m *Manager) persistSubscription(ctx context.Context, sub Subscription) error {
	return requests.URL(m.serverURL).
		Transport(m.transport).
		Bearer(m.token).
		BodyJSON(map[string]any{
			"action": "subscribe",
			"subscription": map[string]any{
				"endpoint": sub.Endpoint(),
				"keys":     sub.Keys(),
			},
			"userId": m.user(),
		}).
		Fetch(ctx)
}

func (m *Manager) removeSubscription(ctx context.Context, sub Subscription) error {
	return requests.URL(m.serverURL).
		Transport(m.transport).
		Bearer(m.token).
		BodyJSON(map[string]any{
			"action": "unsubscribe",
			"subscription": map[string]any{
				"endpoint": sub.Endpoint(),
				"keys":     sub.Keys(),
			},
		}).
		Fetch(ctx)
}

// begin guards against interleaved subscribe/unsubscribe attempts from
// double-clicks or repeated mount effects.
func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	m.busy = true
	m.state.IsLoading = true
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	m.state.IsLoading = false
}

func (m *Manager) setState(mutate func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mutate(&m.state)
}

func (m *Manager) user() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID
}
