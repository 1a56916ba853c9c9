package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	uniqueViolation     = "23505"
	ordersPkey          = "orders_pkey"
	paymentReferenceKey = "orders_payment_reference_key"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "printshop_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	addressJSON, err := json.Marshal(order.ShipToAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal ship-to address: %w", err)
	}

	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = order.CreatedAt

	payload, err := json.Marshal(order.PlacedEvent())
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := `INSERT INTO orders (id, payment_reference, customer_email, ship_to_address, items,
	              subtotal, shipping, tax, total, currency, fulfillment_reference,
	              pending_manual_fulfillment, status, tracking_reference, session_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, insertErr := tx.ExecContext(ctx, query,
		order.ID,
		order.PaymentReference,
		order.CustomerEmail,
		addressJSON,
		itemsJSON,
		order.Subtotal,
		order.Shipping,
		order.Tax,
		order.Total,
		order.Currency,
		nullString(order.FulfillmentReference),
		order.PendingManualFulfillment,
		order.Status,
		nullString(order.TrackingReference),
		nullString(order.SessionID),
		order.CreatedAt,
		order.UpdatedAt)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case ordersPkey:
				return ErrOrderIDConflict
			case paymentReferenceKey:
				return ErrDuplicatePaymentReference
			}
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), order.ID, domain.EventOrderPlaced, payload, now)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

const selectOrder = `SELECT id, payment_reference, customer_email, ship_to_address, items,
	       subtotal, shipping, tax, total, currency, fulfillment_reference,
	       pending_manual_fulfillment, status, tracking_reference, session_id, created_at, updated_at
	FROM orders`

func (r *Repository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOrder(ctx, selectOrder+` WHERE id = $1`, id)
}

func (r *Repository) GetOrderByPaymentReference(ctx context.Context, paymentReference string) (*domain.Order, error) {
	return r.getOrder(ctx, selectOrder+` WHERE payment_reference = $1`, paymentReference)
}

func (r *Repository) getOrder(ctx context.Context, query string, arg string) (*domain.Order, error) {
	var (
		order                                  domain.Order
		itemsJSON, addressJSON                 []byte
		fulfillmentRef, trackingRef, sessionID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&order.ID,
		&order.PaymentReference,
		&order.CustomerEmail,
		&addressJSON,
		&itemsJSON,
		&order.Subtotal,
		&order.Shipping,
		&order.Tax,
		&order.Total,
		&order.Currency,
		&fulfillmentRef,
		&order.PendingManualFulfillment,
		&order.Status,
		&trackingRef,
		&sessionID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &order.ShipToAddress); err != nil {
		return nil, fmt.Errorf("unmarshal ship-to address: %w", err)
	}
	order.FulfillmentReference = fulfillmentRef.String
	order.TrackingReference = trackingRef.String
	order.SessionID = sessionID.String

	return &order, nil
}

// UpdateOrderStatus moves an order forward. An empty trackingReference keeps the stored one.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus, trackingReference string) error {
	query := `UPDATE orders
	          SET status = $2,
	              tracking_reference = COALESCE($3, tracking_reference),
	              updated_at = NOW()
	          WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, nullString(trackingReference))
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, aggregate_id, event_type, payload, created_at
	          FROM outbox_events
	          WHERE processed_at IS NULL
	          ORDER BY created_at
	          LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		e := &OutboxEvent{}
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event processed: %w", err)
	}
	return nil
}

func (r *Repository) DeleteProcessedEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox_events WHERE processed_at IS NOT NULL AND processed_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("delete processed outbox events: %w", err)
	}
	return result.RowsAffected()
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
