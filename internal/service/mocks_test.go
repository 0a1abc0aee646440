package service

import (
	"context"
	"time"

	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"

	"github.com/stretchr/testify/mock"
)

// Моки репозиториев для тестов сервисов

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserRepo) ListUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	args := m.Called(ctx, ids)
	if v, ok := args.Get(0).([]model.User); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.UserRepository = (*mockUserRepo)(nil)

type mockPurchaseRepo struct{ mock.Mock }

func (m *mockPurchaseRepo) CreatePurchase(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	args := m.Called(ctx, p)
	if v, ok := args.Get(0).(*model.Purchase); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPurchaseRepo) GetPurchaseByID(ctx context.Context, id string) (*model.Purchase, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*model.Purchase); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPurchaseRepo) ListPurchases(ctx context.Context, f repo.PurchaseFilter) ([]model.Purchase, error) {
	args := m.Called(ctx, f)
	if v, ok := args.Get(0).([]model.Purchase); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.PurchaseRepository = (*mockPurchaseRepo)(nil)

type mockSubscriptionRepo struct{ mock.Mock }

func (m *mockSubscriptionRepo) CreateSubscription(ctx context.Context, s *model.PushSubscription) (*model.PushSubscription, error) {
	args := m.Called(ctx, s)
	if v, ok := args.Get(0).(*model.PushSubscription); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) SaveSubscription(ctx context.Context, s *model.PushSubscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSubscriptionRepo) GetSubscriptionByEndpoint(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	args := m.Called(ctx, endpoint)
	if v, ok := args.Get(0).(*model.PushSubscription); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) ListActiveSubscriptions(ctx context.Context, f repo.SubscriptionFilter) ([]model.PushSubscription, error) {
	args := m.Called(ctx, f)
	if v, ok := args.Get(0).([]model.PushSubscription); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSubscriptionRepo) CountSubscriptions(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *mockSubscriptionRepo) SetActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockSubscriptionRepo) MarkUsed(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockSubscriptionRepo) ActiveUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]string); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

var _ repo.SubscriptionRepository = (*mockSubscriptionRepo)(nil)
