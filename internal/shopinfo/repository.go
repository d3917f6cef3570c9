package shopinfo

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/labamart/labamart/internal/models"
	"github.com/labamart/labamart/internal/repository/postgres"
)

const (
	selectShopQuery = `
						SELECT id, name, own_delivery, linked_apps FROM shops
						WHERE id = $1
`
	selectServicesQuery = `
						SELECT id, name, price FROM shop_services
						WHERE shop_id = $1
						ORDER BY name
`
	selectAddOnsQuery = `
						SELECT id, name, price FROM shop_addons
						WHERE shop_id = $1
						ORDER BY name
`
	selectDeliveryOptionsQuery = `
						SELECT id, name, fee, drop_off FROM shop_delivery_options
						WHERE shop_id = $1
						ORDER BY name
`
	selectFabricTypesQuery = `
						SELECT name FROM shop_fabric_types
						WHERE shop_id = $1
						ORDER BY name
`
	selectPaymentMethodsQuery = `
						SELECT id, name FROM shop_payment_methods
						WHERE shop_id = $1
						ORDER BY name
`
)

// Repository reads the shop bundle from the database.
type Repository struct {
	db *postgres.DB
}

// NewRepository creates new shopinfo Repository instance
func NewRepository(db *postgres.DB) *Repository {
	return &Repository{db: db}
}

// FullDetails loads the complete shop bundle.
func (r *Repository) FullDetails(ctx context.Context, shopID string) (*models.ShopDetails, error) {
	details := models.ShopDetails{}

	var linkedApps string
	err := r.db.QueryRow(ctx, selectShopQuery, shopID).Scan(
		&details.ShopID, &details.Name, &details.OwnDelivery, &linkedApps)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}
	if linkedApps != "" {
		details.LinkedApps = strings.Split(linkedApps, ",")
	}

	details.Services = []models.ShopService{}
	rows, err := r.db.Query(ctx, selectServicesQuery, shopID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		svc := models.ShopService{}
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Price); err != nil {
			continue
		}
		details.Services = append(details.Services, svc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	details.AddOns = []models.ShopAddOn{}
	rows, err = r.db.Query(ctx, selectAddOnsQuery, shopID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		addon := models.ShopAddOn{}
		if err := rows.Scan(&addon.ID, &addon.Name, &addon.Price); err != nil {
			continue
		}
		details.AddOns = append(details.AddOns, addon)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	details.DeliveryOptions = []models.DeliveryOption{}
	rows, err = r.db.Query(ctx, selectDeliveryOptionsQuery, shopID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		opt := models.DeliveryOption{}
		if err := rows.Scan(&opt.ID, &opt.Name, &opt.Fee, &opt.DropOff); err != nil {
			continue
		}
		details.DeliveryOptions = append(details.DeliveryOptions, opt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	details.FabricTypes = []string{}
	rows, err = r.db.Query(ctx, selectFabricTypesQuery, shopID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		details.FabricTypes = append(details.FabricTypes, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	details.PaymentMethods = []models.PaymentMethod{}
	rows, err = r.db.Query(ctx, selectPaymentMethodsQuery, shopID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		method := models.PaymentMethod{}
		if err := rows.Scan(&method.ID, &method.Name); err != nil {
			continue
		}
		details.PaymentMethods = append(details.PaymentMethods, method)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &details, nil
}
