package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"

	"github.com/semenovm/ucp-checkout/internal/domain"
)

// Credentials holds the connection settings for the orders database.
type Credentials struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c Credentials) dsn() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// PostgresRepository stores orders in Postgres. Line items, totals,
// fulfillment, and adjustments live in JSONB columns since they are
// read and written as whole documents.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository connects and applies pending migrations from
// migrationsPath.
func NewPostgresRepository(creds Credentials, migrationsPath string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", creds.dsn())
	if err != nil {
		return nil, fmt.Errorf("opening orders database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging orders database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, creds.DBName, driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, order *domain.Order) error {
	lineItems, totals, fulfillment, adjustments, err := marshalDocs(order)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO orders (id, checkout_id, permalink_url, currency, line_items, totals, fulfillment, adjustments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID, order.CheckoutID, order.PermalinkURL, order.Currency,
		lineItems, totals, fulfillment, adjustments,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("inserting order %s: %w", order.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var (
		order       domain.Order
		lineItems   []byte
		totals      []byte
		fulfillment []byte
		adjustments []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, checkout_id, permalink_url, currency, line_items, totals, fulfillment, adjustments, created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.CheckoutID, &order.PermalinkURL, &order.Currency,
		&lineItems, &totals, &fulfillment, &adjustments,
		&order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting order %s: %w", id, err)
	}

	if err := json.Unmarshal(lineItems, &order.LineItems); err != nil {
		return nil, fmt.Errorf("decoding line items for order %s: %w", id, err)
	}
	if err := json.Unmarshal(totals, &order.Totals); err != nil {
		return nil, fmt.Errorf("decoding totals for order %s: %w", id, err)
	}
	if err := json.Unmarshal(fulfillment, &order.Fulfillment); err != nil {
		return nil, fmt.Errorf("decoding fulfillment for order %s: %w", id, err)
	}
	if err := json.Unmarshal(adjustments, &order.Adjustments); err != nil {
		return nil, fmt.Errorf("decoding adjustments for order %s: %w", id, err)
	}
	return &order, nil
}

func (r *PostgresRepository) Update(ctx context.Context, order *domain.Order) error {
	lineItems, totals, fulfillment, adjustments, err := marshalDocs(order)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET checkout_id = $2, permalink_url = $3, currency = $4, line_items = $5, totals = $6, fulfillment = $7, adjustments = $8, updated_at = $9
		WHERE id = $1`,
		order.ID, order.CheckoutID, order.PermalinkURL, order.Currency,
		lineItems, totals, fulfillment, adjustments, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %s: %w", order.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating order %s: %w", order.ID, err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func marshalDocs(order *domain.Order) (lineItems, totals, fulfillment, adjustments []byte, err error) {
	if lineItems, err = json.Marshal(order.LineItems); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encoding line items: %w", err)
	}
	if totals, err = json.Marshal(order.Totals); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encoding totals: %w", err)
	}
	if fulfillment, err = json.Marshal(order.Fulfillment); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encoding fulfillment: %w", err)
	}
	if adjustments, err = json.Marshal(order.Adjustments); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encoding adjustments: %w", err)
	}
	return lineItems, totals, fulfillment, adjustments, nil
}
