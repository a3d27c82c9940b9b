package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/vrksol/pushgate/config"
	"github.com/vrksol/pushgate/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewDispatcher(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, db *gorm.DB, transport http.RoundTripper) *Dispatcher {
	concurrency := 5
	ttlSecs := 86400 // push services hold undelivered payloads for a day

	return &Dispatcher{
		log, cfg, db,
		&http.Client{Transport: transport},
		concurrency, ttlSecs,
	}
}

type Dispatcher struct {
	log    *zap.Logger
	cfg    *config.Config
	db     *gorm.DB
	client *http.Client

	concurrency int
	ttlSecs     int
}

// Send fans the payload out to every subscription, or to the target user's
// subscriptions when targetUserID is non-empty. Endpoints that refuse
// delivery are presumed permanently dead and pruned from the registry; the
// caller only ever sees the aggregate counts.
func (d *Dispatcher) Send(ctx context.Context, payload Payload, targetUserID string) (Metrics, error) {
	payload = payload.WithDefaults(d.cfg.AppName, d.cfg.AppIcon)
	raw, err := json.Marshal(payload)
	if err != nil {
		return Metrics{}, err
	}

	deliveryID := uuid.NewString()

	tx := d.db.WithContext(ctx)
	if targetUserID != "" {
		tx = tx.Where("user_id = ?", targetUserID)
	}

	var subs models.PushSubscriptions
	var metrics Metrics
	tx = tx.FindInBatches(&subs, d.concurrency, func(tx *gorm.DB, batch int) error {
		m := d.dispatchBatch(ctx, subs, raw, deliveryID)
		metrics.Add(m)
		return nil
	})
	if err := tx.Error; err != nil {
		d.log.Sugar().Errorw("Failed to resolve subscriptions", "delivery_id", deliveryID, "err", err)
		return metrics, err
	}

	d.log.Sugar().Infow("Fan-out completed",
		"delivery_id", deliveryID, "sent", metrics.Sent, "failed", metrics.Failed,
	)
	return metrics, nil
}

func (d *Dispatcher) dispatchBatch(ctx context.Context, batch models.PushSubscriptions, raw []byte, deliveryID string) Metrics {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var metrics Metrics
	dead := make([]string, 0)

	for _, sub := range batch {
		wg.Add(1)

		go func(sub models.PushSubscription) {
			defer wg.Done()
			ok := d.dispatchOne(ctx, &sub, raw, deliveryID)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				metrics.Sent += 1
			} else {
				metrics.Failed += 1
				dead = append(dead, sub.Endpoint)
			}
		}(sub)
	}

	wg.Wait()

	d.pruneEndpoints(ctx, dead, deliveryID)
	return metrics
}

func (d *Dispatcher) dispatchOne(ctx context.Context, sub *models.PushSubscription, raw []byte, deliveryID string) bool {
	resp, err := webpush.SendNotificationWithContext(ctx, raw, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      d.client,
		Subscriber:      d.cfg.VAPID.Subscriber,
		VAPIDPublicKey:  d.cfg.VAPID.PublicKey,
		VAPIDPrivateKey: d.cfg.VAPID.PrivateKey,
		TTL:             d.ttlSecs,
	})
	if err != nil {
		d.log.Sugar().Warnw("Push delivery failed", "delivery_id", deliveryID, "endpoint", sub.Endpoint, "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.log.Sugar().Warnw("Push delivery rejected", "delivery_id", deliveryID, "endpoint", sub.Endpoint, "status", resp.StatusCode)
		return false
	}
	return true
}

// pruneEndpoints drops registry records whose dispatch attempt failed. A
// failed delivery almost always means the channel is gone for good (expired,
// revoked, browser uninstalled), so there is no retry.
func (d *Dispatcher) pruneEndpoints(ctx context.Context, endpoints []string, deliveryID string) {
	if len(endpoints) == 0 {
		return
	}

	tx := d.db.WithContext(ctx).Delete(&models.PushSubscription{}, "endpoint IN ?", endpoints)
	if err := tx.Error; err != nil {
		d.log.Sugar().Errorw("Failed to prune dead subscriptions", "delivery_id", deliveryID, "err", err)
		return
	}
	d.log.Sugar().Infow("Pruned dead subscriptions", "delivery_id", deliveryID, "count", tx.RowsAffected)
}
