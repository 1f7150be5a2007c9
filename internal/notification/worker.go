package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"parking-iot-backend/internal/logger"
	"parking-iot-backend/internal/model"
)

// Notice is the payload pushed to every subscribed operator.
type Notice struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers broadcasting notices to all subscriptions.
type WorkerPool struct {
	size    int
	jobs    chan Notice
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Notice, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log := logger.Logger(ctx).With(zap.Int("push_worker", id))
	log.Debug("push worker started")
	for {
		select {
		case n := <-wp.jobs:
			log.Debug("broadcasting notice", zap.String("title", n.Title))
			wp.broadcast(ctx, n)
		case <-ctx.Done():
			log.Debug("push worker shutting down")
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(n Notice) {
	wp.jobs <- n
}

// Notify dispatches a notice unless ctx ends first.
func (wp *WorkerPool) Notify(ctx context.Context, n Notice) {
	select {
	case wp.jobs <- n:
	case <-ctx.Done():
		logger.Logger(ctx).Warn("notice dropped", zap.String("title", n.Title), zap.Error(ctx.Err()))
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Notice {
	return wp.jobs
}

func (wp *WorkerPool) broadcast(ctx context.Context, n Notice) {
	log := logger.Logger(ctx)

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Order("created_at").Find(&subscriptions).Error; err != nil {
		log.Error("fetch subscriptions", zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		log.Error("encode notice", zap.Error(err))
		return
	}

	log.Info("sending notifications", zap.Int("subscriptions", len(subscriptions)), zap.String("title", n.Title))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	log := logger.Logger(ctx).With(zap.String("endpoint", sub.Endpoint))

	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Warn("send notification", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Info("subscription expired, deleting")
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Error("delete expired subscription", zap.Error(err))
		}
	}
}
