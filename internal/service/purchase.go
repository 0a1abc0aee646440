package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"RapperDashboard/internal/metrics"
	"RapperDashboard/internal/model"
	"RapperDashboard/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Допустимое расхождение между total и суммой позиций (центы).
const totalTolerance = 0.01

var (
	ErrMissingUserID    = errors.New("service: purchase user id is required")
	ErrNoItems          = errors.New("service: purchase needs at least one item")
	ErrTotalMismatch    = errors.New("service: total does not match the sum of items")
	ErrPurchaseNotFound = errors.New("service: purchase not found")
)

// RequestMeta — данные HTTP-запроса, попадающие в метаданные покупки.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// RecordPurchaseRequest — вход recordPurchase.
type RecordPurchaseRequest struct {
	UserID    string
	Items     []model.PurchaseItem
	Total     float64
	Timestamp *time.Time
	SyncedAt  *time.Time
	Meta      RequestMeta
}

// PurchaseSummary — краткая форма покупки для ответов API.
type PurchaseSummary struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
	Status    string     `json:"status,omitempty"`
	Source    string     `json:"source,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty"`
}

// SyncEntry — один элемент офлайн-очереди клиента, уже прошедший разбор JSON.
type SyncEntry struct {
	QueueID   string
	UserID    string
	Items     []model.PurchaseItem
	Total     *float64
	Timestamp *time.Time
	CreatedAt *time.Time
}

// SyncError — причина отказа по одному элементу очереди.
type SyncError struct {
	QueueID string `json:"queueId,omitempty"`
	Reason  string `json:"error"`
	// storage=true означает отказ хранилища, а не кривой элемент
	Storage bool `json:"-"`
}

// SyncOutcome — итог reconcileSyncBatch.
type SyncOutcome struct {
	Processed []PurchaseSummary
	Errors    []SyncError
}

// StorageFailures — сколько отказов пришло от хранилища.
func (o *SyncOutcome) StorageFailures() int {
	n := 0
	for _, e := range o.Errors {
		if e.Storage {
			n++
		}
	}
	return n
}

// PurchaseStats — агрегаты по покупкам пользователя.
type PurchaseStats struct {
	TotalPurchases int     `json:"totalPurchases"`
	TotalSpent     float64 `json:"totalSpent"`
	TotalItems     int     `json:"totalItems"`
	AverageSpent   float64 `json:"averageSpent"`
}

// PurchaseService — журнал покупок: прямые записи, офлайн-сверка, выборки.
type PurchaseService struct {
	repo   repo.PurchaseRepository
	logger *zap.SugaredLogger
}

func NewPurchaseService(r repo.PurchaseRepository, logger *zap.SugaredLogger) *PurchaseService {
	return &PurchaseService{repo: r, logger: logger}
}

func withinTolerance(total float64, items []model.PurchaseItem) bool {
	var sum float64
	for _, it := range items {
		sum += it.Price
	}
	return math.Abs(total-sum) <= totalTolerance
}

// Record валидирует и сохраняет одну покупку.
// Статус определяется наличием syncedAt: synced для офлайн-реплея, иначе completed.
func (s *PurchaseService) Record(ctx context.Context, req RecordPurchaseRequest) (*model.Purchase, error) {
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if !withinTolerance(req.Total, req.Items) {
		return nil, ErrTotalMismatch
	}

	now := time.Now()
	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	status := model.StatusCompleted
	source := model.SourceOnline
	if req.SyncedAt != nil {
		status = model.StatusSynced
		source = model.SourceOfflineSync
	}

	p := &model.Purchase{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Items:     req.Items,
		Total:     req.Total,
		Status:    status,
		Timestamp: ts,
		SyncedAt:  req.SyncedAt,
		Metadata: model.PurchaseMetadata{
			IP:        req.Meta.IP,
			UserAgent: req.Meta.UserAgent,
			Source:    source,
		},
	}

	created, err := s.repo.CreatePurchase(ctx, p)
	if err != nil {
		return nil, err
	}

	metrics.PurchasesRecordedTotal.WithLabelValues(source).Inc()
	s.logger.Infow("purchase recorded", "purchase_id", created.ID, "user_id", created.UserID, "source", source)
	return created, nil
}

// SyncBatch обрабатывает элементы офлайн-очереди независимо друг от друга.
// Один кривой элемент попадает в Errors и не валит остальные; порядок
// обработки не гарантируется — каждый элемент пишет свою отдельную запись.
func (s *PurchaseService) SyncBatch(ctx context.Context, entries []SyncEntry, expectedUserID string, meta RequestMeta) SyncOutcome {
	batchID := uuid.NewString()

	type slot struct {
		summary *PurchaseSummary
		fail    *SyncError
	}
	slots := make([]slot, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry SyncEntry) {
			defer wg.Done()

			if entry.UserID == "" || len(entry.Items) == 0 {
				s.logger.Warnw("sync entry with incomplete data",
					"queue_id", entry.QueueID,
					"has_user_id", entry.UserID != "",
					"item_count", len(entry.Items),
				)
				slots[i].fail = &SyncError{QueueID: entry.QueueID, Reason: "Datos incompletos"}
				return
			}

			// Несовпадение пользователя — предупреждение, не отказ
			if expectedUserID != "" && entry.UserID != expectedUserID {
				s.logger.Warnw("sync entry user mismatch",
					"expected", expectedUserID, "received", entry.UserID)
			}

			var total float64
			if entry.Total != nil && *entry.Total != 0 {
				total = *entry.Total
				if !withinTolerance(total, entry.Items) {
					slots[i].fail = &SyncError{QueueID: entry.QueueID, Reason: "El total no coincide con la suma de los items"}
					return
				}
			} else {
				for _, it := range entry.Items {
					total += it.Price
				}
			}

			now := time.Now()
			ts := now
			if entry.Timestamp != nil {
				ts = *entry.Timestamp
			} else if entry.CreatedAt != nil {
				ts = *entry.CreatedAt
			}

			queueID := entry.QueueID
			if queueID == "" {
				queueID = "unknown"
			}

			p := &model.Purchase{
				ID:        uuid.NewString(),
				UserID:    entry.UserID,
				Items:     entry.Items,
				Total:     total,
				Status:    model.StatusSynced,
				Timestamp: ts,
				SyncedAt:  &now,
				Metadata: model.PurchaseMetadata{
					IP:          meta.IP,
					UserAgent:   meta.UserAgent,
					Source:      model.SourceOfflineSync,
					QueueID:     queueID,
					SyncBatchID: batchID,
				},
			}

			created, err := s.repo.CreatePurchase(ctx, p)
			if err != nil {
				s.logger.Errorw("sync entry storage failure", "queue_id", queueID, "error", err)
				slots[i].fail = &SyncError{QueueID: entry.QueueID, Reason: err.Error(), Storage: true}
				return
			}

			slots[i].summary = &PurchaseSummary{
				ID:        created.ID,
				UserID:    created.UserID,
				Total:     created.Total,
				ItemCount: created.ItemCount(),
				SyncedAt:  created.SyncedAt,
				CreatedAt: created.CreatedAt,
			}
			s.logger.Infow("sync entry persisted", "purchase_id", created.ID, "user_id", created.UserID)
		}(i, entry)
	}
	wg.Wait()

	out := SyncOutcome{
		Processed: make([]PurchaseSummary, 0, len(entries)),
		Errors:    make([]SyncError, 0),
	}
	for _, sl := range slots {
		switch {
		case sl.summary != nil:
			out.Processed = append(out.Processed, *sl.summary)
			metrics.SyncEntriesTotal.WithLabelValues("synced").Inc()
		case sl.fail != nil:
			out.Errors = append(out.Errors, *sl.fail)
			if sl.fail.Storage {
				metrics.SyncEntriesTotal.WithLabelValues("failed").Inc()
			} else {
				metrics.SyncEntriesTotal.WithLabelValues("invalid").Inc()
			}
		}
	}
	return out
}

// List — покупки по фильтру, новые первыми.
func (s *PurchaseService) List(ctx context.Context, f repo.PurchaseFilter) ([]model.Purchase, error) {
	return s.repo.ListPurchases(ctx, f)
}

// GetByID — одна покупка, ErrPurchaseNotFound если записи нет.
func (s *PurchaseService) GetByID(ctx context.Context, id string) (*model.Purchase, error) {
	p, err := s.repo.GetPurchaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return p, nil
}

// Stats — агрегаты по покупкам пользователя; нули, если покупок нет.
func (s *PurchaseService) Stats(ctx context.Context, userID string) (PurchaseStats, error) {
	purchases, err := s.repo.ListPurchases(ctx, repo.PurchaseFilter{UserID: userID})
	if err != nil {
		return PurchaseStats{}, err
	}

	stats := PurchaseStats{TotalPurchases: len(purchases)}
	for _, p := range purchases {
		stats.TotalSpent += p.Total
		stats.TotalItems += p.ItemCount()
	}
	if stats.TotalPurchases > 0 {
		stats.AverageSpent = stats.TotalSpent / float64(stats.TotalPurchases)
	}
	return stats, nil
}
