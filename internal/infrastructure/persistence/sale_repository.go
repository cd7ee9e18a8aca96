package persistence

import (
	"context"
	"errors"

	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/ledger"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/domain/shared"
	"github.com/SilvaGabriel011/Dani-Cosmeticos-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements ledger.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Save upserts a sale
func (r *GormSaleRepository) Save(ctx context.Context, sale *ledger.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the sale under FOR UPDATE. Inside a transaction
// this serializes concurrent writers on the same sale; the row lock extends
// to the end of the transaction.
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer returns a page of one customer's sales
func (r *GormSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("customer_id = ?", customerID)
	return r.paginate(query, filter)
}

// List returns a page of sales
func (r *GormSaleRepository) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{})
	if filter.Search != "" {
		query = query.Where("LOWER(customer_name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	return r.paginate(query, filter)
}

// FindInconsistent returns the ids of pending sales whose paid amount
// disagrees with the sum of their installments' paid amounts beyond the
// tolerance. Cancelled installments are excluded from the sum.
func (r *GormSaleRepository) FindInconsistent(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Select("sales.id").
		Joins(`LEFT JOIN receivables ON receivables.sale_id = sales.id AND receivables.status <> 'CANCELLED'`).
		Where("sales.status = ? AND sales.paid_amount > 0", ledger.SaleStatusPending).
		Group("sales.id").
		Having("ABS(sales.paid_amount - COALESCE(SUM(receivables.paid_amount), 0)) >= ?", ledger.Tolerance.InexactFloat64()).
		Order("sales.id").
		Pluck("sales.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes a sale; receivables and payments cascade in the schema
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormSaleRepository) paginate(query *gorm.DB, filter shared.Filter) (*shared.Paginated[ledger.Sale], error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, SaleSortFields, "sale_date")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var saleModels []models.SaleModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&saleModels).Error; err != nil {
		return nil, err
	}

	sales := make([]ledger.Sale, len(saleModels))
	for i := range saleModels {
		sales[i] = *saleModels[i].ToDomain()
	}
	return shared.NewPaginated(sales, total, filter.Page, filter.PageSize), nil
}
