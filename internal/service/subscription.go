package service

import (
	"context"
	"errors"
	"time"

	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidSubscription  = errors.New("service: subscription endpoint is required")
	ErrSubscriptionNotFound = errors.New("service: subscription not found")
)

// SubscribeRequest — вход subscribe.
type SubscribeRequest struct {
	Endpoint  string
	Keys      model.SubscriptionKeys
	UserID    string // пустая строка — анонимная подписка
	UserAgent string
	Origin    string
}

// SubscriptionStats — сводка по подпискам.
type SubscriptionStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// SubscriptionService — реестр push-подписок.
type SubscriptionService struct {
	repo   repo.SubscriptionRepository
	logger *zap.SugaredLogger
}

func NewSubscriptionService(r repo.SubscriptionRepository, logger *zap.SugaredLogger) *SubscriptionService {
	return &SubscriptionService{repo: r, logger: logger}
}

// Subscribe — upsert по endpoint. Существующая запись обновляется
// (ключи, пользователь, origin, active=true); повторные одинаковые
// вызовы идемпотентны. created=false означает обновление.
func (s *SubscriptionService) Subscribe(ctx context.Context, req SubscribeRequest) (id string, created bool, err error) {
	if req.Endpoint == "" {
		return "", false, ErrInvalidSubscription
	}
	if req.Origin == "" {
		req.Origin = "unknown"
	}

	existing, err := s.repo.GetSubscriptionByEndpoint(ctx, req.Endpoint)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}

	now := time.Now()

	if existing != nil {
		existing.Keys = req.Keys
		if req.UserID != "" {
			uid := req.UserID
			existing.UserID = &uid
		}
		existing.UserAgent = req.UserAgent
		existing.Origin = req.Origin
		existing.Active = true
		existing.LastUsed = now

		if err := s.repo.SaveSubscription(ctx, existing); err != nil {
			return "", false, err
		}
		return existing.ID, false, nil
	}

	sub := &model.PushSubscription{
		ID:       uuid.NewString(),
		Endpoint: req.Endpoint,
		Keys:     req.Keys,
		UserAgent: req.UserAgent,
		Origin:    req.Origin,
		Active:    true,
		LastUsed:  now,
	}
	if req.UserID != "" {
		uid := req.UserID
		sub.UserID = &uid
	}

	if _, err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return "", false, err
	}

	s.logger.Infow("push subscription registered", "subscription_id", sub.ID, "origin", sub.Origin)
	return sub.ID, true, nil
}

// Unsubscribe деактивирует подписку (soft-delete).
func (s *SubscriptionService) Unsubscribe(ctx context.Context, endpoint string) error {
	sub, err := s.repo.GetSubscriptionByEndpoint(ctx, endpoint)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubscriptionNotFound
		}
		return err
	}
	return s.repo.SetActive(ctx, sub.ID, false)
}

// ListActive — активные подписки по фильтру.
func (s *SubscriptionService) ListActive(ctx context.Context, f repo.SubscriptionFilter) ([]model.PushSubscription, error) {
	return s.repo.ListActiveSubscriptions(ctx, f)
}

// Stats — количество подписок всего/активных/неактивных.
func (s *SubscriptionService) Stats(ctx context.Context) (SubscriptionStats, error) {
	total, active, err := s.repo.CountSubscriptions(ctx)
	if err != nil {
		return SubscriptionStats{}, err
	}
	return SubscriptionStats{Total: total, Active: active, Inactive: total - active}, nil
}

// SubscribedUserIDs — пользователи с активными подписками.
func (s *SubscriptionService) SubscribedUserIDs(ctx context.Context) ([]string, error) {
	return s.repo.ActiveUserIDs(ctx)
}
