package purchase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Ledger is the transactional store the orchestrator runs against.
type Ledger interface {
	ReserveAndOrder(ctx context.Context, productID, buyerEmail string, quantity int) (*ReservationResult, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

type ReservationResult struct {
	Order          Order `json:"order"`
	RemainingStock int   `json:"remaining_stock"`
}

// Store implements Ledger on PostgreSQL.
type Store struct{ DB *pgxpool.Pool }

// ReserveAndOrder locks the product row (FOR UPDATE), checks and decrements
// stock, and inserts the order — all in one transaction. Concurrent purchases
// of the same product serialize on the row lock, so stock can never go
// negative. Any failure rolls the whole unit back: no partial decrement, no
// orphan order.
//
// Inputs are assumed validated and the email normalized by the caller.
func (s *Store) ReserveAndOrder(ctx context.Context, productID, buyerEmail string, quantity int) (*ReservationResult, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeUnavailable(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var buyerID string
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE email=$1`, buyerEmail).Scan(&buyerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("no account for buyer email " + buyerEmail)
	}
	if err != nil {
		return nil, storeUnavailable(err)
	}

	var (
		priceText string
		stock     int
	)
	err = tx.QueryRow(ctx,
		`SELECT price::text, stock FROM products WHERE id=$1 FOR UPDATE`,
		productID).Scan(&priceText, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("product " + productID + " does not exist")
	}
	if err != nil {
		return nil, storeUnavailable(err)
	}
	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	if stock < quantity {
		return nil, insufficientStock(stock, quantity)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`,
		productID, quantity); err != nil {
		return nil, storeUnavailable(err)
	}

	order := Order{
		ID:         uuid.NewString(),
		ProductID:  productID,
		BuyerID:    buyerID,
		BuyerEmail: buyerEmail,
		Quantity:   quantity,
		Total:      Total(price, quantity),
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, product_id, buyer_id, buyer_email, quantity, total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, order.ID, order.ProductID, order.BuyerID, order.BuyerEmail, order.Quantity,
		order.Total.String()).Scan(&order.CreatedAt)
	if err != nil {
		return nil, storeUnavailable(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeUnavailable(err)
	}

	return &ReservationResult{Order: order, RemainingStock: stock - quantity}, nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var (
		o         Order
		totalText string
	)
	err := s.DB.QueryRow(ctx, `
		SELECT id, product_id, buyer_id, buyer_email, quantity, total::text, created_at
		FROM orders WHERE id=$1
	`, orderID).Scan(&o.ID, &o.ProductID, &o.BuyerID, &o.BuyerEmail, &o.Quantity, &totalText, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("order " + orderID + " does not exist")
	}
	if err != nil {
		return nil, storeUnavailable(err)
	}
	o.Total, err = decimal.NewFromString(totalText)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return &o, nil
}
