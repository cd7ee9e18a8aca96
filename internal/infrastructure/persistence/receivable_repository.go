package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReceivableRepository implements ledger.ReceivableRepository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// Save upserts one installment
func (r *GormReceivableRepository) Save(ctx context.Context, receivable *ledger.Receivable) error {
	model := models.ReceivableModelFromDomain(receivable)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll upserts a batch of installments
func (r *GormReceivableRepository) SaveAll(ctx context.Context, receivables []*ledger.Receivable) error {
	if len(receivables) == 0 {
		return nil
	}
	receivableModels := make([]*models.ReceivableModel, len(receivables))
	for i, rec := range receivables {
		receivableModels[i] = models.ReceivableModelFromDomain(rec)
	}
	return r.db.WithContext(ctx).Save(receivableModels).Error
}

// FindByID finds an installment by its ID
func (r *GormReceivableRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Receivable, error) {
	var model models.ReceivableModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySale returns the sale's installments ordered by installment number
func (r *GormReceivableRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]*ledger.Receivable, error) {
	var receivableModels []models.ReceivableModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("installment ASC").
		Find(&receivableModels).Error; err != nil {
		return nil, err
	}
	receivables := make([]*ledger.Receivable, len(receivableModels))
	for i := range receivableModels {
		receivables[i] = receivableModels[i].ToDomain()
	}
	return receivables, nil
}

// FindOverdue returns open installments past due as of the given instant,
// oldest first
func (r *GormReceivableRepository) FindOverdue(ctx context.Context, asOf time.Time, filter shared.Filter) (*shared.Paginated[ledger.Receivable], error) {
	query := r.db.WithContext(ctx).Model(&models.ReceivableModel{}).
		Where("status IN ?", []ledger.ReceivableStatus{ledger.ReceivableStatusPending, ledger.ReceivableStatusPartial}).
		Where("due_date < ?", asOf)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var receivableModels []models.ReceivableModel
	if err := query.
		Order("due_date ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&receivableModels).Error; err != nil {
		return nil, err
	}

	receivables := make([]ledger.Receivable, len(receivableModels))
	for i := range receivableModels {
		receivables[i] = *receivableModels[i].ToDomain()
	}
	return shared.NewPaginated(receivables, total, filter.Page, filter.PageSize), nil
}

// DeleteBySale removes every installment of a sale
func (r *GormReceivableRepository) DeleteBySale(ctx context.Context, saleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ReceivableModel{}, "sale_id = ?", saleID).Error
}
