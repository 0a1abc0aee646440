package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"RapperDashboard/internal/metrics"
	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

// PushConfig — VAPID-ключи отправителя. Передаются диспетчеру явно
// при конструировании, без глобальной регистрации.
type PushConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

// Configured — заданы ли ключи.
func (c PushConfig) Configured() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// NotificationPayload — тело push-уведомления.
type NotificationPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon"`
	Badge string         `json:"badge"`
	Data  map[string]any `json:"data"`
	Tag   string         `json:"tag"`
}

func (p *NotificationPayload) applyDefaults() {
	if p.Icon == "" {
		p.Icon = "/icon-192x192.png"
	}
	if p.Badge == "" {
		p.Badge = "/icon-72x72.png"
	}
	if p.Tag == "" {
		p.Tag = "default-notification"
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}
}

// DeliveryResult — исход доставки по одной подписке.
type DeliveryResult struct {
	SubscriptionID string `json:"subscriptionId"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
}

// BroadcastResult — агрегат рассылки. Sent+Failed == Total.
type BroadcastResult struct {
	Total   int              `json:"total"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Results []DeliveryResult `json:"-"`
}

// SendFunc — доставка одного сообщения push-сервису. Возвращает HTTP-статус
// ответа. Подменяется в тестах.
type SendFunc func(ctx context.Context, sub *webpush.Subscription, payload []byte) (int, error)

// Dispatcher рассылает push-уведомления по набору подписок, изолируя
// отказы: ошибка доставки одной подписки не мешает остальным.
type Dispatcher struct {
	repo   repo.SubscriptionRepository
	cfg    PushConfig
	send   SendFunc
	logger *zap.SugaredLogger
}

func NewDispatcher(r repo.SubscriptionRepository, cfg PushConfig, logger *zap.SugaredLogger) *Dispatcher {
	d := &Dispatcher{repo: r, cfg: cfg, logger: logger}
	d.send = d.webpushSend
	return d
}

// SetSender подменяет транспорт доставки (тесты).
func (d *Dispatcher) SetSender(f SendFunc) {
	d.send = f
}

// Configured — можно ли отправлять (ключи заданы).
func (d *Dispatcher) Configured() bool {
	return d.cfg.Configured()
}

func (d *Dispatcher) webpushSend(ctx context.Context, sub *webpush.Subscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
		Subscriber:      d.cfg.Subject,
		VAPIDPublicKey:  d.cfg.PublicKey,
		VAPIDPrivateKey: d.cfg.PrivateKey,
		TTL:             30,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// Broadcast доставляет payload каждой подписке конкурентно. Ответ 410 (или
// 404) push-сервиса означает исчезнувший endpoint — такая подписка
// деактивируется; прочие сбои оставляют её активной для повторных попыток.
// Успешная доставка отмечает lastUsed.
func (d *Dispatcher) Broadcast(ctx context.Context, subs []model.PushSubscription, payload NotificationPayload) BroadcastResult {
	payload.applyDefaults()
	body, err := json.Marshal(payload)
	if err != nil {
		// payload собирается сервером, сюда попадать не должно
		d.logger.Errorw("failed to marshal push payload", "error", err)
		return BroadcastResult{Total: len(subs), Failed: len(subs)}
	}

	results := make([]DeliveryResult, len(subs))

	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub model.PushSubscription) {
			defer wg.Done()
			results[i] = d.deliver(ctx, sub, body)
		}(i, sub)
	}
	wg.Wait()

	res := BroadcastResult{Total: len(subs), Results: results}
	for _, r := range results {
		if r.Success {
			res.Sent++
		} else {
			res.Failed++
		}
	}

	d.logger.Infow("broadcast finished", "total", res.Total, "sent", res.Sent, "failed", res.Failed)
	return res
}

func (d *Dispatcher) deliver(ctx context.Context, sub model.PushSubscription, body []byte) DeliveryResult {
	status, err := d.send(ctx, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, body)
	if err != nil {
		d.logger.Warnw("push delivery error", "subscription_id", sub.ID, "error", err)
		metrics.PushDeliveriesTotal.WithLabelValues("failed").Inc()
		return DeliveryResult{SubscriptionID: sub.ID, Error: err.Error()}
	}

	switch {
	case status == http.StatusGone || status == http.StatusNotFound:
		// endpoint исчез — подписка больше не жилец
		if err := d.repo.SetActive(ctx, sub.ID, false); err != nil {
			d.logger.Errorw("failed to deactivate gone subscription", "subscription_id", sub.ID, "error", err)
		} else {
			d.logger.Infow("subscription deactivated (gone)", "subscription_id", sub.ID, "status", status)
		}
		metrics.PushDeliveriesTotal.WithLabelValues("gone").Inc()
		return DeliveryResult{SubscriptionID: sub.ID, Error: fmt.Sprintf("endpoint gone (%d)", status)}

	case status >= http.StatusBadRequest:
		metrics.PushDeliveriesTotal.WithLabelValues("failed").Inc()
		return DeliveryResult{SubscriptionID: sub.ID, Error: fmt.Sprintf("push service returned %d", status)}
	}

	// явный пост-шаг после доставки, не скрытый колбэк
	if err := d.repo.MarkUsed(ctx, sub.ID, time.Now()); err != nil {
		d.logger.Warnw("failed to mark subscription used", "subscription_id", sub.ID, "error", err)
	}
	metrics.PushDeliveriesTotal.WithLabelValues("sent").Inc()
	return DeliveryResult{SubscriptionID: sub.ID, Success: true}
}
