package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrksol/pushgate/config"
	"github.com/vrksol/pushgate/push"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if cfg.APIToken != "" {
			r.Use(bearerAuth(cfg.APIToken))
		} else {
			log.Sugar().Info("Auth is disabled since no API token is defined")
		}

		r.Post("/push", ctrl.dispatchAction)
	})

	return r
}

// bearerAuth checks the caller's application credential. This identifies the
// calling application, not the end user; restricting who may trigger a send
// is the caller's concern.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if got != token {
				http.Error(w, "invalid credential", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type pushRequest struct {
	Action       string            `json:"action"`
	Subscription *subscriptionBody `json:"subscription"`
	UserID       string            `json:"userId"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Icon         string            `json:"icon"`
	URL          string            `json:"url"`
}

type subscriptionBody struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type controller struct {
	log *zap.Logger
	svc *Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Error("Request failed", "error", err)
		return
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(b)
	}
}

func (ctrl *controller) dispatchAction(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctrl.reject(w, 400, err)
		return
	}

	switch req.Action {
	case "get-vapid-key":
		ctrl.getVAPIDKey(w, r)
	case "subscribe":
		ctrl.subscribe(w, r, &req)
	case "unsubscribe":
		ctrl.unsubscribe(w, r, &req)
	case "send":
		ctrl.send(w, r, &req)
	default:
		ctrl.reject(w, 400, errors.New("Invalid action"))
	}
}

func (ctrl *controller) getVAPIDKey(w http.ResponseWriter, r *http.Request) {
	ctrl.resolve(w, http.StatusOK, map[string]any{"publicKey": ctrl.svc.VAPIDPublicKey()})
}

func (ctrl *controller) subscribe(w http.ResponseWriter, r *http.Request, req *pushRequest) {
	ctx := r.Context()

	if req.Subscription == nil || req.Subscription.Endpoint == "" || req.UserID == "" {
		ctrl.reject(w, 400, errors.New("Missing subscription or userId"))
		return
	}

	sub := req.Subscription
	if err := ctrl.svc.SaveSubscription(ctx, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, req.UserID); err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"success": true})
}

func (ctrl *controller) unsubscribe(w http.ResponseWriter, r *http.Request, req *pushRequest) {
	ctx := r.Context()

	if req.Subscription == nil || req.Subscription.Endpoint == "" {
		ctrl.reject(w, 400, errors.New("Missing subscription"))
		return
	}

	// Deletion failure is not surfaced: the client's own unsubscribe already
	// happened, and a dangling record self-heals on the next failed dispatch.
	if err := ctrl.svc.RemoveSubscription(ctx, req.Subscription.Endpoint); err != nil {
		ctrl.log.Sugar().Errorw("Failed to remove subscription", "err", err)
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"success": true})
}

func (ctrl *controller) send(w http.ResponseWriter, r *http.Request, req *pushRequest) {
	ctx := r.Context()

	payload := push.Payload{
		Title: req.Title,
		Body:  req.Body,
		Icon:  req.Icon,
		URL:   req.URL,
	}
	m, err := ctrl.svc.SendNotification(ctx, payload, req.UserID)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"success": true,
		"sent":    m.Sent,
		"failed":  m.Failed,
	})
}
