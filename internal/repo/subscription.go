package repo

import (
	"context"
	"time"

	"RapperDashboard/internal/model"

	"gorm.io/gorm"
)

// SubscriptionFilter — выборка активных подписок. Пустые поля не фильтруют.
type SubscriptionFilter struct {
	UserID string
	Origin string
}

// SubscriptionRepository — контракт доступа к push-подпискам.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, s *model.PushSubscription) (*model.PushSubscription, error)
	SaveSubscription(ctx context.Context, s *model.PushSubscription) error
	GetSubscriptionByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	ListActiveSubscriptions(ctx context.Context, f SubscriptionFilter) ([]model.PushSubscription, error)
	CountSubscriptions(ctx context.Context) (total int64, active int64, err error)
	SetActive(ctx context.Context, id string, active bool) error
	MarkUsed(ctx context.Context, id string, at time.Time) error
	// ActiveUserIDs — ID пользователей, у которых есть активные подписки
	// (анонимные подписки не учитываются).
	ActiveUserIDs(ctx context.Context) ([]string, error)
}

type subscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) CreateSubscription(ctx context.Context, s *model.PushSubscription) (*model.PushSubscription, error) {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *subscriptionRepo) SaveSubscription(ctx context.Context, s *model.PushSubscription) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *subscriptionRepo) GetSubscriptionByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var s model.PushSubscription
	if err := r.db.WithContext(ctx).First(&s, "endpoint = ?", endpoint).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepo) ListActiveSubscriptions(ctx context.Context, f SubscriptionFilter) ([]model.PushSubscription, error) {
	q := r.db.WithContext(ctx).Where("active = ?", true)

	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Origin != "" {
		q = q.Where("origin = ?", f.Origin)
	}

	var subs []model.PushSubscription
	if err := q.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepo) CountSubscriptions(ctx context.Context) (int64, int64, error) {
	var total, active int64
	if err := r.db.WithContext(ctx).Model(&model.PushSubscription{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.PushSubscription{}).Where("active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func (r *subscriptionRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.db.WithContext(ctx).
		Model(&model.PushSubscription{}).
		Where("id = ?", id).
		Update("active", active).Error
}

func (r *subscriptionRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.PushSubscription{}).
		Where("id = ?", id).
		Update("last_used", at).Error
}

func (r *subscriptionRepo) ActiveUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.PushSubscription{}).
		Where("active = ? AND user_id IS NOT NULL", true).
		Distinct().
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
