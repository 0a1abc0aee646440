package repo

import (
	"context"

	"RapperDashboard/internal/model"

	"gorm.io/gorm"
)

// PurchaseFilter — параметры выборки покупок. Пустые поля не фильтруют.
type PurchaseFilter struct {
	UserID string
	Status string
	Limit  int
	Skip   int
}

// PurchaseRepository — контракт доступа к покупкам.
type PurchaseRepository interface {
	CreatePurchase(ctx context.Context, p *model.Purchase) (*model.Purchase, error)
	GetPurchaseByID(ctx context.Context, id string) (*model.Purchase, error)
	// ListPurchases возвращает покупки по фильтру, новые первыми.
	ListPurchases(ctx context.Context, f PurchaseFilter) ([]model.Purchase, error)
}

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db: db}
}

func (r *purchaseRepo) CreatePurchase(ctx context.Context, p *model.Purchase) (*model.Purchase, error) {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *purchaseRepo) GetPurchaseByID(ctx context.Context, id string) (*model.Purchase, error) {
	var p model.Purchase
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepo) ListPurchases(ctx context.Context, f PurchaseFilter) ([]model.Purchase, error) {
	q := r.db.WithContext(ctx).Model(&model.Purchase{}).Order("created_at DESC")

	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Skip > 0 {
		q = q.Offset(f.Skip)
	}

	var purchases []model.Purchase
	if err := q.Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}
