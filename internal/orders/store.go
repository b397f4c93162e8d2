package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/support-router/internal/db"
)

// Store provides identity and order lookups backed by SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// NormalizeEmail lowercases and trims an email for matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number, so
// "555-123-4567" and "(555) 123 4567" match.
func NormalizePhone(phone string) string {
	var sb strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Verify returns the id of the customer registered with both email and
// phone, or "" when the pair matches nobody. A mismatch is not an error.
func (s *Store) Verify(ctx context.Context, email, phone string) (string, error) {
	email, phone = NormalizeEmail(email), NormalizePhone(phone)
	if email == "" || phone == "" {
		return "", nil
	}

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM customers WHERE email = ? AND phone = ?`, email, phone,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("verifying identity: %w", err)
	}
	return id, nil
}

// OrdersFor lists a customer's orders, oldest first.
func (s *Store) OrdersFor(ctx context.Context, customerID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status FROM orders WHERE customer_id = ? ORDER BY created_at, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Status); err != nil {
			return nil, fmt.Errorf("scanning order summary: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Get returns the order with the given id, including its items.
// Returns ErrNotFound if no such order exists.
func (s *Store) Get(ctx context.Context, id string) (*Order, error) {
	var (
		o                                Order
		createdAt                        string
		shippedAt, deliveredAt, refunded sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, status, shipping_status, refund_status, total_amount,
		       created_at, shipped_at, delivered_at, refunded_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.CustomerID, &o.Status, &o.ShippingStatus, &o.RefundStatus, &o.TotalAmount,
		&createdAt, &shippedAt, &deliveredAt, &refunded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}

	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("order %s created_at: %w", id, err)
	}
	if o.ShippedAt, err = parseNullTime(shippedAt); err != nil {
		return nil, fmt.Errorf("order %s shipped_at: %w", id, err)
	}
	if o.DeliveredAt, err = parseNullTime(deliveredAt); err != nil {
		return nil, fmt.Errorf("order %s delivered_at: %w", id, err)
	}
	if o.RefundedAt, err = parseNullTime(refunded); err != nil {
		return nil, fmt.Errorf("order %s refunded_at: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, name, quantity, price FROM order_items WHERE order_id = ? ORDER BY product_id`, id)
	if err != nil {
		return nil, fmt.Errorf("listing items for order %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return &o, rows.Err()
}

// Import upserts every customer, order and item in f inside a single
// transaction. Customers without an id get a generated one.
func (s *Store) Import(ctx context.Context, f Fixture) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	imported := 0
	for _, c := range f.Customers {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, email, phone, name) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET email = excluded.email, phone = excluded.phone, name = excluded.name`,
			c.ID, NormalizeEmail(c.Email), NormalizePhone(c.Phone), c.Name,
		); err != nil {
			return 0, fmt.Errorf("importing customer %s: %w", c.ID, err)
		}

		for _, o := range c.Orders {
			if err := importOrder(ctx, tx, c.ID, o); err != nil {
				return 0, err
			}
			imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return imported, nil
}

func importOrder(ctx context.Context, tx *sql.Tx, customerID string, o FixtureOrder) error {
	if o.ID == "" {
		return fmt.Errorf("order for customer %s has no id", customerID)
	}

	created := time.Now().UTC()
	if o.CreatedAt != "" {
		t, err := parseTime(o.CreatedAt)
		if err != nil {
			return fmt.Errorf("order %s created_at: %w", o.ID, err)
		}
		created = t
	}
	stamps := make([]any, 0, 3)
	for _, raw := range []string{o.ShippedAt, o.DeliveredAt, o.RefundedAt} {
		if raw == "" {
			stamps = append(stamps, nil)
			continue
		}
		t, err := parseTime(raw)
		if err != nil {
			return fmt.Errorf("order %s: %w", o.ID, err)
		}
		stamps = append(stamps, formatTime(t))
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, status, shipping_status, refund_status, total_amount,
		                    created_at, shipped_at, delivered_at, refunded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id, status = excluded.status,
			shipping_status = excluded.shipping_status, refund_status = excluded.refund_status,
			total_amount = excluded.total_amount, created_at = excluded.created_at,
			shipped_at = excluded.shipped_at, delivered_at = excluded.delivered_at,
			refunded_at = excluded.refunded_at`,
		o.ID, customerID, orDefault(o.Status, StatusProcessing), orDefault(o.ShippingStatus, ShippingPending),
		orDefault(o.RefundStatus, RefundNone), o.TotalAmount, formatTime(created),
		stamps[0], stamps[1], stamps[2],
	); err != nil {
		return fmt.Errorf("importing order %s: %w", o.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, o.ID); err != nil {
		return fmt.Errorf("clearing items for order %s: %w", o.ID, err)
	}
	for _, it := range o.Items {
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, name, quantity, price) VALUES (?, ?, ?, ?, ?)`,
			o.ID, it.ProductID, it.Name, qty, it.Price,
		); err != nil {
			return fmt.Errorf("importing item %s of order %s: %w", it.ProductID, o.ID, err)
		}
	}
	return nil
}

// LoadFixture reads a YAML seed file.
func LoadFixture(path string) (Fixture, error) {
	var f Fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return f, nil
}

var timeLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
