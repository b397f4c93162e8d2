package orders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/support-router/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func testFixture() Fixture {
	return Fixture{Customers: []FixtureCustomer{
		{
			ID: "cust-1", Email: "A@B.com ", Phone: "555-123-4567", Name: "Ada",
			Orders: []FixtureOrder{
				{
					ID: "351", Status: StatusShipped, ShippingStatus: ShippingShipped,
					TotalAmount: 42.5, CreatedAt: "2026-03-02", ShippedAt: "2026-03-03",
					Items: []Item{{ProductID: "sku-2", Name: "Mug", Quantity: 2, Price: 10}},
				},
				{
					ID: "350", Status: StatusDelivered, ShippingStatus: ShippingDelivered,
					TotalAmount: 19.99, CreatedAt: "2026-03-01T10:00:00Z",
					ShippedAt: "2026-03-02T10:00:00Z", DeliveredAt: "2026-03-05T10:00:00Z",
				},
			},
		},
		{ID: "cust-2", Email: "nobody@example.com", Phone: "555 000 0000"},
	}}
}

func TestImportAndVerify(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	n, err := store.Import(ctx, testFixture())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d orders, want 2", n)
	}

	tests := []struct {
		name  string
		email string
		phone string
		want  string
	}{
		{"exact", "a@b.com", "5551234567", "cust-1"},
		{"formatting differs", " A@B.COM", "(555) 123-4567", "cust-1"},
		{"wrong phone", "a@b.com", "555-999-9999", ""},
		{"unknown email", "x@y.com", "555-123-4567", ""},
		{"empty phone", "a@b.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Verify(ctx, tt.email, tt.phone)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if got != tt.want {
				t.Errorf("Verify(%q, %q) = %q, want %q", tt.email, tt.phone, got, tt.want)
			}
		})
	}
}

func TestOrdersForStoreOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	if _, err := store.Import(ctx, testFixture()); err != nil {
		t.Fatalf("Import: %v", err)
	}

	got, err := store.OrdersFor(ctx, "cust-1")
	if err != nil {
		t.Fatalf("OrdersFor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(got))
	}
	if got[0].ID != "350" || got[1].ID != "351" {
		t.Errorf("expected oldest first [350 351], got [%s %s]", got[0].ID, got[1].ID)
	}
	if got[0].Status != StatusDelivered {
		t.Errorf("expected status delivered, got %q", got[0].Status)
	}

	none, err := store.OrdersFor(ctx, "cust-2")
	if err != nil {
		t.Fatalf("OrdersFor: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no orders, got %d", len(none))
	}
}

func TestGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	if _, err := store.Import(ctx, testFixture()); err != nil {
		t.Fatalf("Import: %v", err)
	}

	o, err := store.Get(ctx, "350")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !o.Delivered() {
		t.Error("expected order 350 to be delivered")
	}
	if o.DeliveredAt.Day() != 5 {
		t.Errorf("unexpected delivered_at %v", o.DeliveredAt)
	}
	if o.Refunded() {
		t.Error("order 350 should not be refunded")
	}

	o, err = store.Get(ctx, "351")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !o.Shipped() || o.Delivered() {
		t.Errorf("expected 351 shipped but not delivered: %+v", o)
	}
	if len(o.Items) != 1 || o.Items[0].Quantity != 2 {
		t.Errorf("unexpected items: %+v", o.Items)
	}
}

func TestGetNotFound(t *testing.T) {
	store := setupStore(t)
	_, err := store.Get(context.Background(), "999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := store.Import(ctx, testFixture()); err != nil {
			t.Fatalf("Import #%d: %v", i+1, err)
		}
	}
	got, err := store.OrdersFor(ctx, "cust-1")
	if err != nil {
		t.Fatalf("OrdersFor: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 orders after re-import, got %d", len(got))
	}
}

func TestImportRejectsBadTimestamp(t *testing.T) {
	store := setupStore(t)
	f := Fixture{Customers: []FixtureCustomer{{
		ID: "c", Email: "c@d.com", Phone: "1",
		Orders: []FixtureOrder{{ID: "1", ShippedAt: "last tuesday"}},
	}}}
	if _, err := store.Import(context.Background(), f); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
	if id, _ := store.Verify(context.Background(), "c@d.com", "1"); id != "" {
		t.Error("failed import should have rolled back the customer")
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.yaml")
	data := []byte(`customers:
  - id: cust-9
    email: z@z.com
    phone: "555-111-2222"
    orders:
      - id: "12345"
        status: processing
        items:
          - product_id: sku-1
            quantity: 1
            price: 9.5
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(f.Customers) != 1 || len(f.Customers[0].Orders) != 1 {
		t.Fatalf("unexpected fixture: %+v", f)
	}
	if f.Customers[0].Orders[0].Items[0].ProductID != "sku-1" {
		t.Errorf("item not parsed: %+v", f.Customers[0].Orders[0].Items)
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone("+1 (555) 123-4567"); got != "15551234567" {
		t.Errorf("NormalizePhone = %q", got)
	}
}
