package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/invoice-dashboard/internal/adapter/identity"
	"github.com/rl1809/invoice-dashboard/internal/adapter/storage"
	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	"github.com/rl1809/invoice-dashboard/internal/core/service"
)

type testEnv struct {
	redis    *redis.Client
	mysql    *sql.DB
	cache    *storage.RedisAdapter
	db       *storage.SQLAdapter
	customer domain.Customer
	cleanup  func()
}

func setupTestEnv(t *testing.T) *testEnv {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/invoices?parseTime=true"
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	ctx := context.Background()
	adapter := storage.NewSQLAdapter(db, storage.DialectMySQL)
	if err := adapter.ApplySchema(ctx); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	// Every run gets its own customer so the search below only sees our rows.
	suffix := uuid.NewString()
	customer := domain.Customer{
		ID:       uuid.NewString(),
		Name:     "Integration " + suffix,
		Email:    suffix + "@integration.test",
		ImageURL: "/customers/integration.png",
	}
	if err := adapter.Seed(ctx, storage.SeedData{Customers: []domain.Customer{customer}}); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	return &testEnv{
		redis:    rdb,
		mysql:    db,
		cache:    storage.NewRedisAdapter(rdb, time.Minute),
		db:       adapter,
		customer: customer,
		cleanup: func() {
			db.ExecContext(ctx, `DELETE FROM invoices WHERE customer_id = ?`, customer.ID)
			db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, customer.ID)
			rdb.Close()
			db.Close()
		},
	}
}

func (env *testEnv) form(amount, status string) service.FormData {
	return service.FormData{
		service.FieldCustomerID: env.customer.ID,
		service.FieldAmount:     amount,
		service.FieldStatus:     status,
	}
}

func TestIntegration_InvoiceLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	svc := service.NewInvoiceService(env.db, env.db, env.cache)
	query := env.customer.Email

	// Prime the list view
	empty, err := svc.ListInvoices(ctx, query, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(empty.Invoices) != 0 {
		t.Fatalf("expected empty list, got %d", len(empty.Invoices))
	}

	// Create
	result := svc.CreateInvoice(ctx, service.State{}, env.form("15.00", "pending"))
	if !result.Redirected() {
		t.Fatalf("create failed: %+v", result.State)
	}

	page, err := svc.ListInvoices(ctx, query, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Invoices) != 1 {
		t.Fatalf("expected cached view to be invalidated, got %d invoices", len(page.Invoices))
	}
	created := page.Invoices[0]
	if created.Amount != 1500 {
		t.Errorf("expected amount 1500, got %d", created.Amount)
	}
	if created.Date != time.Now().UTC().Format(domain.DateLayout) {
		t.Errorf("expected today's date, got %s", created.Date)
	}

	// Update
	result = svc.UpdateInvoice(ctx, created.ID, service.State{}, env.form("20.50", "paid"))
	if !result.Redirected() {
		t.Fatalf("update failed: %+v", result.State)
	}

	inv, err := env.db.GetInvoice(ctx, created.ID)
	if err != nil || inv == nil {
		t.Fatalf("get invoice failed: %v", err)
	}
	if inv.Amount != 2050 || inv.Status != domain.InvoiceStatusPaid {
		t.Errorf("update not applied: %+v", inv)
	}
	if inv.Date != created.Date {
		t.Errorf("update changed date from %s to %s", created.Date, inv.Date)
	}

	// Delete
	state := svc.DeleteInvoice(ctx, created.ID)
	if state.Message != service.InvoiceDeletedMessage {
		t.Fatalf("delete failed: %+v", state)
	}

	page, err = svc.ListInvoices(ctx, query, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Invoices) != 0 {
		t.Errorf("expected deleted invoice to disappear from list, got %d", len(page.Invoices))
	}
}

func TestIntegration_UnknownCustomerKeepsCachedView(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	svc := service.NewInvoiceService(env.db, env.db, env.cache)
	gen, err := env.cache.Generation(ctx, service.InvoicesPath)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	key := service.ViewKey(service.InvoicesPath, gen, env.customer.Email, 1)

	if _, err := svc.ListInvoices(ctx, env.customer.Email, 1); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	form := env.form("10", "paid")
	form[service.FieldCustomerID] = "no-such-customer"
	result := svc.CreateInvoice(ctx, service.State{}, form)

	if result.Redirected() {
		t.Fatal("expected create to fail")
	}
	if result.State.Message != "Database Error: Failed to Create Invoice." {
		t.Errorf("unexpected message %q", result.State.Message)
	}
	if _, ok, _ := env.cache.GetInvoicePage(ctx, key); !ok {
		t.Error("failed mutation must not invalidate the view")
	}
}

func TestIntegration_ConcurrentCreates(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	svc := service.NewInvoiceService(env.db, env.db, env.cache)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	totalRequests := 20

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			result := svc.CreateInvoice(ctx, service.State{}, env.form(fmt.Sprintf("%d.25", n+1), "pending"))
			if result.Redirected() {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if successCount.Load() != int32(totalRequests) {
		t.Errorf("expected %d successful creates, got %d", totalRequests, successCount.Load())
	}

	page, err := svc.ListInvoices(ctx, env.customer.Email, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if want := (totalRequests + 5) / 6; page.TotalPages != want {
		t.Errorf("expected %d pages, got %d", want, page.TotalPages)
	}
	if len(page.Invoices) != 6 {
		t.Errorf("expected a full first page, got %d", len(page.Invoices))
	}
}

func TestIntegration_Authenticate(t *testing.T) {
	env := setupTestEnv(t)
	defer env.cleanup()

	ctx := context.Background()
	email := "integration-" + uuid.NewString() + "@nextmail.com"
	hash, err := identity.HashPassword("123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := env.db.Seed(ctx, storage.SeedData{Users: []domain.User{{
		ID: uuid.NewString(), Name: "Integration", Email: email, Password: hash,
	}}}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	defer env.mysql.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)

	tokens, _ := identity.NewTokenManager("integration-secret", time.Hour)
	auth := service.NewAuthService(identity.NewCredentialsProvider(env.db, tokens), identity.Classifier{})

	outcome, err := auth.Authenticate(ctx, "", service.FormData{"email": email, "password": "123456"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Session == nil {
		t.Fatalf("expected session, got message %q", outcome.Message)
	}

	outcome, err = auth.Authenticate(ctx, "", service.FormData{"email": email, "password": "wrong-password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Message != "Invalid credentials." {
		t.Errorf("expected invalid credentials, got %q", outcome.Message)
	}
}
