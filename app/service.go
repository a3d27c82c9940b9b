package app

import (
	"context"
	"time"

	"github.com/vrksol/pushgate/config"
	"github.com/vrksol/pushgate/models"
	"github.com/vrksol/pushgate/push"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	cfg        *config.Config
	log        *zap.Logger
	db         *gorm.DB
	dispatcher *push.Dispatcher
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB, dispatcher *push.Dispatcher) *Service {
	return &Service{cfg, log, db, dispatcher}
}

func (svc *Service) VAPIDPublicKey() string {
	return svc.cfg.VAPID.PublicKey
}

// SaveSubscription upserts keyed by endpoint: re-subscribing the same
// channel replaces the stored keys and owner instead of adding a row.
func (svc *Service) SaveSubscription(ctx context.Context, endpoint, p256dh, auth, userID string) error {
	sub := &models.PushSubscription{
		Endpoint:  endpoint,
		P256dh:    p256dh,
		Auth:      auth,
		UserID:    userID,
		UpdatedAt: time.Now().UTC(),
	}
	tx := svc.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			UpdateAll: true,
		}).
		Create(sub)
	if err := tx.Error; err != nil {
		return err
	}
	svc.log.Sugar().Infof("Saved subscription for user %s", userID)
	return nil
}

// RemoveSubscription is idempotent: deleting an endpoint that is already
// absent is a no-op, not an error.
func (svc *Service) RemoveSubscription(ctx context.Context, endpoint string) error {
	tx := svc.db.WithContext(ctx).Delete(&models.PushSubscription{}, "endpoint = ?", endpoint)
	return tx.Error
}

// Subscriptions returns every stored record, or the target user's records
// when userID is non-empty.
func (svc *Service) Subscriptions(ctx context.Context, userID string) (models.PushSubscriptions, error) {
	tx := svc.db.WithContext(ctx)
	if userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	var subs models.PushSubscriptions
	if err := tx.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (svc *Service) SendNotification(ctx context.Context, payload push.Payload, userID string) (push.Metrics, error) {
	return svc.dispatcher.Send(ctx, payload, userID)
}
