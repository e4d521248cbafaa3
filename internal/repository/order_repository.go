package repository

import (
	"catalog-service/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// OrderRepositoryInterface is the storage contract used by the order service
type OrderRepositoryInterface interface {
	CreateWithCustomer(ctx context.Context, order *models.Order, customer *models.Customer) error
	List(ctx context.Context, status *models.OrderStatus, limit, offset int) ([]models.Order, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	ListCustomers(ctx context.Context, search string, limit, offset int) ([]models.Customer, int64, error)
	GetCustomer(ctx context.Context, id uint) (*models.Customer, error)
}

// Ensure OrderRepository implements the interface
var _ OrderRepositoryInterface = (*OrderRepository)(nil)

// OrderRepository handles database operations for orders and customers
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithCustomer stores the order, reusing the customer with the same
// email (and refreshing their contact details) or creating a new one
func (r *OrderRepository) CreateWithCustomer(ctx context.Context, order *models.Order, customer *models.Customer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		email := strings.ToLower(strings.TrimSpace(customer.Email))

		var existing models.Customer
		err := tx.Where("email = ?", email).First(&existing).Error
		switch {
		case err == nil:
			existing.Name = customer.Name
			if customer.Phone != nil {
				existing.Phone = customer.Phone
			}
			if customer.Address != nil {
				existing.Address = customer.Address
			}
			if err := tx.Omit("Orders").Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to update customer: %w", err)
			}
			*customer = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			customer.Email = email
			if err := tx.Create(customer).Error; err != nil {
				return fmt.Errorf("failed to create customer: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up customer: %w", err)
		}

		order.CustomerID = customer.ID
		if err := tx.Omit("Customer").Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		order.Customer = customer
		return nil
	})
}

// List returns orders newest first, optionally filtered by status
func (r *OrderRepository) List(ctx context.Context, status *models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	orders := []models.Order{}
	err := query.Preload("Customer").Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// GetByID retrieves an order with its customer and items
func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Customer").Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

// GetByNumber retrieves an order by its public order number
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").Where("order_number = ?", orderNumber).First(&order).Error
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

// Save persists order columns without touching items or customer
func (r *OrderRepository) Save(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit("Customer", "Items").Save(order).Error; err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// ListCustomers returns customers ordered by name
func (r *OrderRepository) ListCustomers(ctx context.Context, search string, limit, offset int) ([]models.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	customers := []models.Customer{}
	if err := query.Order("name ASC, id ASC").Limit(limit).Offset(offset).Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, total, nil
}

// GetCustomer retrieves a customer with their orders, newest first
func (r *OrderRepository) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC, id DESC") }).
		First(&customer, id).Error
	if err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	return &customer, nil
}
