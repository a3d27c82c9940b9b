package receiver

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/vrksol/pushgate/push"
	"go.uber.org/zap"
)

const (
	ActionOpen    = "open"
	ActionDismiss = "close"
)

var vibrationPattern = []int{100, 50, 100}

// Receiver handles push and notification events independent of any open
// application window.
type Receiver struct {
	log     *zap.Logger
	rt      Runtime
	origin  string
	appName string
	appIcon string
}

func New(log *zap.Logger, rt Runtime, origin, appName, appIcon string) *Receiver {
	return &Receiver{log, rt, origin, appName, appIcon}
}

// HandleInstall takes control immediately instead of waiting for existing
// worker instances to wind down. The receiver is stateless, so fast rollout
// wins over versioning safety.
func (r *Receiver) HandleInstall() error {
	r.log.Sugar().Info("Worker installed")
	return r.rt.SkipWaiting()
}

// HandleActivate claims every open window so the new worker governs them
// without a reload.
func (r *Receiver) HandleActivate(ctx context.Context) error {
	r.log.Sugar().Info("Worker activated")
	return r.rt.ClaimClients(ctx)
}

// HandlePush renders an inbound payload as a system notification. A body
// that does not parse as structured data is shown as plain text over the
// defaults; the notification is never dropped.
func (r *Receiver) HandlePush(ctx context.Context, body []byte) error {
	data := push.Payload{
		Title: r.appName,
		Body:  push.DefaultBody,
		Icon:  r.appIcon,
		URL:   push.DefaultURL,
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			data.Body = string(body)
		}
	}

	return r.rt.ShowNotification(ctx, data.Title, Options{
		Body:    data.Body,
		Icon:    data.Icon,
		Badge:   r.appIcon,
		Vibrate: vibrationPattern,
		Data: Data{
			URL:           data.URL,
			DateOfArrival: time.Now().UnixMilli(),
		},
		Actions: []Action{
			{Action: ActionOpen, Title: "Open"},
			{Action: ActionDismiss, Title: "Dismiss"},
		},
		RequireInteraction: true,
	})
}

// HandleNotificationClick routes the user into the application: an existing
// window on this origin is navigated and focused, otherwise a new one opens.
func (r *Receiver) HandleNotificationClick(ctx context.Context, n ClickedNotification) error {
	n.Close()

	if n.Action() == ActionDismiss {
		return nil
	}

	url := n.Data().URL
	if url == "" {
		url = push.DefaultURL
	}

	windows, err := r.rt.MatchWindows(ctx)
	if err != nil {
		return err
	}
	for _, w := range windows {
		if strings.Contains(w.URL(), r.origin) {
			if err := w.Navigate(ctx, url); err != nil {
				return err
			}
			return w.Focus(ctx)
		}
	}
	return r.rt.OpenWindow(ctx, url)
}

func (r *Receiver) HandleNotificationClose() {
	r.log.Sugar().Info("Notification dismissed")
}
