package delivery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/dukaflow/dukaflow/internal/domain"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrDeliveryOrderNotFound = errors.New("delivery order not found")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListPartners(ctx context.Context, tenantID string) ([]domain.DeliveryPartner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, provider, config, is_active, created_at
		FROM delivery_partners
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	partners := []domain.DeliveryPartner{}
	for rows.Next() {
		var p domain.DeliveryPartner
		var config []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Provider, &config, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		if len(config) > 0 {
			if err := json.Unmarshal(config, &p.Config); err != nil {
				return nil, err
			}
		}
		partners = append(partners, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return partners, nil
}

type CreatePartnerInput struct {
	Name     string
	Provider string
	Config   map[string]any
	IsActive *bool
}

func (r *Repository) CreatePartner(ctx context.Context, tenantID string, input CreatePartnerInput) (*domain.DeliveryPartner, error) {
	if input.Config == nil {
		input.Config = map[string]any{}
	}
	config, err := json.Marshal(input.Config)
	if err != nil {
		return nil, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	p := &domain.DeliveryPartner{
		Name:     input.Name,
		Provider: input.Provider,
		Config:   input.Config,
		IsActive: active,
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO delivery_partners (tenant_id, name, provider, config, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, tenantID, input.Name, input.Provider, config, active).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// CreateDeliveryOrder opens a fulfilment record for an existing order. The
// order must belong to the tenant.
func (r *Repository) CreateDeliveryOrder(ctx context.Context, tenantID, orderID string, partnerID, notes *string) (*domain.DeliveryOrder, error) {
	var exists string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE tenant_id = $1 AND id = $2
	`, tenantID, orderID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	d := &domain.DeliveryOrder{
		OrderID:   orderID,
		PartnerID: partnerID,
		Status:    "pending",
		Notes:     notes,
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO delivery_orders (tenant_id, order_id, partner_id, status, notes)
		VALUES ($1, $2, $3, 'pending', $4)
		RETURNING id, created_at, updated_at
	`, tenantID, orderID, partnerID, notes).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return d, nil
}

type UpdateDeliveryStatusInput struct {
	Status       *string
	EtaMinutes   *int
	TrackingCode *string
}

func (r *Repository) UpdateStatus(ctx context.Context, tenantID, deliveryID string, input UpdateDeliveryStatusInput) (*domain.DeliveryOrder, error) {
	d := &domain.DeliveryOrder{ID: deliveryID}

	err := r.db.QueryRowContext(ctx, `
		UPDATE delivery_orders
		SET status = COALESCE($1, status),
		    eta_minutes = COALESCE($2, eta_minutes),
		    tracking_code = COALESCE($3, tracking_code),
		    updated_at = now()
		WHERE tenant_id = $4 AND id = $5
		RETURNING order_id, partner_id, status, eta_minutes, tracking_code, notes, created_at, updated_at
	`, input.Status, input.EtaMinutes, input.TrackingCode, tenantID, deliveryID).
		Scan(&d.OrderID, &d.PartnerID, &d.Status, &d.EtaMinutes, &d.TrackingCode, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeliveryOrderNotFound
		}
		return nil, err
	}

	return d, nil
}

func (r *Repository) ListDeliveryOrders(ctx context.Context, tenantID string) ([]domain.DeliveryOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, partner_id, status, eta_minutes, tracking_code, notes, created_at, updated_at
		FROM delivery_orders
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	deliveries := []domain.DeliveryOrder{}
	for rows.Next() {
		var d domain.DeliveryOrder
		if err := rows.Scan(&d.ID, &d.OrderID, &d.PartnerID, &d.Status, &d.EtaMinutes,
			&d.TrackingCode, &d.Notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return deliveries, nil
}
