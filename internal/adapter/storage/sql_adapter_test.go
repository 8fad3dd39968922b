package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

const (
	testCustomerID = "7a1e0c3b-5d2f-4e8a-9b61-0c4d2e8f1a35"
	testUserID     = "410544b2-4001-4271-9855-fec4b6a6442a"
)

func mysqlDSN() string {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/invoices?parseTime=true"
	}
	return dsn
}

func getMySQLAdapter(t *testing.T) (*SQLAdapter, *sql.DB) {
	dsn := mysqlDSN()

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	adapter := NewSQLAdapter(db, DialectMySQL)
	ctx := context.Background()
	if err := adapter.ApplySchema(ctx); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	err = adapter.Seed(ctx, SeedData{
		Users: []domain.User{{ID: testUserID, Name: "Test User", Email: "adapter-test@nextmail.com", Password: "hash"}},
		Customers: []domain.Customer{{
			ID: testCustomerID, Name: "Zara Adapter", Email: "zara@adapter.test", ImageURL: "/customers/zara.png",
		}},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	return adapter, db
}

func TestCreateInvoice_Success(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	id, err := adapter.CreateInvoice(ctx, domain.Invoice{
		CustomerID: testCustomerID,
		Amount:     1500,
		Status:     domain.InvoiceStatusPending,
		Date:       "2024-03-09",
	})
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	defer adapter.DeleteInvoice(ctx, id)

	if id == "" {
		t.Fatal("expected generated id")
	}

	inv, err := adapter.GetInvoice(ctx, id)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if inv == nil {
		t.Fatal("expected invoice, got nil")
	}
	if inv.Amount != 1500 {
		t.Errorf("expected amount 1500, got %d", inv.Amount)
	}
	if inv.Date != "2024-03-09" {
		t.Errorf("expected date 2024-03-09, got %s", inv.Date)
	}
	if inv.Status != domain.InvoiceStatusPending {
		t.Errorf("expected status pending, got %s", inv.Status)
	}
}

func TestCreateInvoice_UnknownCustomer(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	_, err := adapter.CreateInvoice(context.Background(), domain.Invoice{
		CustomerID: "no-such-customer",
		Amount:     100,
		Status:     domain.InvoiceStatusPaid,
		Date:       "2024-03-09",
	})
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got: %v", err)
	}
}

func TestUpdateInvoice_KeepsDate(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	id, err := adapter.CreateInvoice(ctx, domain.Invoice{
		CustomerID: testCustomerID,
		Amount:     1000,
		Status:     domain.InvoiceStatusPending,
		Date:       "2023-01-01",
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer adapter.DeleteInvoice(ctx, id)

	err = adapter.UpdateInvoice(ctx, domain.Invoice{
		ID:         id,
		CustomerID: testCustomerID,
		Amount:     2050,
		Status:     domain.InvoiceStatusPaid,
	})
	if err != nil {
		t.Fatalf("UpdateInvoice failed: %v", err)
	}

	inv, _ := adapter.GetInvoice(ctx, id)
	if inv == nil {
		t.Fatal("invoice disappeared")
	}
	if inv.Amount != 2050 || inv.Status != domain.InvoiceStatusPaid {
		t.Errorf("update not applied: %+v", inv)
	}
	if inv.Date != "2023-01-01" {
		t.Errorf("expected date untouched, got %s", inv.Date)
	}
}

func TestUpdateInvoice_MissingRow(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	err := adapter.UpdateInvoice(context.Background(), domain.Invoice{
		ID:         "nonexistent-invoice",
		CustomerID: testCustomerID,
		Amount:     100,
		Status:     domain.InvoiceStatusPaid,
	})
	if err != nil {
		t.Errorf("expected no error for zero rows affected, got: %v", err)
	}
}

func TestDeleteInvoice_Idempotent(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	id, err := adapter.CreateInvoice(ctx, domain.Invoice{
		CustomerID: testCustomerID,
		Amount:     100,
		Status:     domain.InvoiceStatusPaid,
		Date:       "2024-01-01",
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if err := adapter.DeleteInvoice(ctx, id); err != nil {
		t.Fatalf("DeleteInvoice failed: %v", err)
	}
	if err := adapter.DeleteInvoice(ctx, id); err != nil {
		t.Errorf("second delete should succeed, got: %v", err)
	}

	inv, err := adapter.GetInvoice(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv != nil {
		t.Error("expected nil for deleted invoice")
	}
}

func TestSearchInvoices(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	older, err := adapter.CreateInvoice(ctx, domain.Invoice{
		CustomerID: testCustomerID, Amount: 111, Status: domain.InvoiceStatusPaid, Date: "2020-01-01",
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer adapter.DeleteInvoice(ctx, older)
	newer, err := adapter.CreateInvoice(ctx, domain.Invoice{
		CustomerID: testCustomerID, Amount: 222, Status: domain.InvoiceStatusPending, Date: "2020-02-01",
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer adapter.DeleteInvoice(ctx, newer)

	items, err := adapter.SearchInvoices(ctx, "ZARA ADAPTER", 100, 0)
	if err != nil {
		t.Fatalf("SearchInvoices failed: %v", err)
	}
	if len(items) < 2 {
		t.Fatalf("expected at least 2 items, got %d", len(items))
	}
	if items[0].Date < items[len(items)-1].Date {
		t.Error("expected newest invoice first")
	}
	if items[0].Name != "Zara Adapter" {
		t.Errorf("expected joined customer name, got %q", items[0].Name)
	}

	count, err := adapter.CountInvoices(ctx, "zara@adapter.test")
	if err != nil {
		t.Fatalf("CountInvoices failed: %v", err)
	}
	if count != len(items) {
		t.Errorf("expected count %d, got %d", len(items), count)
	}
}

func TestSearchInvoices_WildcardsAreLiteral(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	id, err := adapter.CreateInvoice(ctx, domain.Invoice{
		CustomerID: testCustomerID, Amount: 333, Status: domain.InvoiceStatusPaid, Date: "2020-03-01",
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer adapter.DeleteInvoice(ctx, id)

	for _, query := range []string{"zara%adapter", "zara_adapter"} {
		count, err := adapter.CountInvoices(ctx, query)
		if err != nil {
			t.Fatalf("CountInvoices(%q) failed: %v", query, err)
		}
		if count != 0 {
			t.Errorf("expected %q to match nothing, got %d", query, count)
		}
	}
}

func TestGetInvoice_WithoutParseTime(t *testing.T) {
	seeded, seededDB := getMySQLAdapter(t)
	defer seededDB.Close()

	ctx := context.Background()
	id, err := seeded.CreateInvoice(ctx, domain.Invoice{
		CustomerID: testCustomerID, Amount: 444, Status: domain.InvoiceStatusPending, Date: "2021-07-04",
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	defer seeded.DeleteInvoice(ctx, id)

	raw, err := sql.Open("mysql", strings.Replace(mysqlDSN(), "parseTime=true", "parseTime=false", 1))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer raw.Close()
	adapter := NewSQLAdapter(raw, DialectMySQL)

	inv, err := adapter.GetInvoice(ctx, id)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if inv == nil || inv.Date != "2021-07-04" {
		t.Errorf("expected date 2021-07-04, got %+v", inv)
	}

	items, err := adapter.SearchInvoices(ctx, "2021-07-04", 100, 0)
	if err != nil {
		t.Fatalf("SearchInvoices failed: %v", err)
	}
	if len(items) == 0 || items[0].Date != "2021-07-04" {
		t.Errorf("expected searched date 2021-07-04, got %+v", items)
	}
}

func TestListCustomers(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	customers, err := adapter.ListCustomers(context.Background())
	if err != nil {
		t.Fatalf("ListCustomers failed: %v", err)
	}

	found := false
	for _, c := range customers {
		if c.ID == testCustomerID {
			found = true
		}
	}
	if !found {
		t.Error("seeded customer not listed")
	}
}

func TestGetUserByEmail(t *testing.T) {
	adapter, db := getMySQLAdapter(t)
	defer db.Close()

	ctx := context.Background()
	u, err := adapter.GetUserByEmail(ctx, "adapter-test@nextmail.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if u == nil || u.ID != testUserID {
		t.Fatalf("expected seeded user, got %+v", u)
	}

	u, err = adapter.GetUserByEmail(ctx, "nobody@nextmail.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown email")
	}
}
