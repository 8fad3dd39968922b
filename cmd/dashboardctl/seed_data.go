package main

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rl1809/invoice-dashboard/internal/adapter/identity"
	"github.com/rl1809/invoice-dashboard/internal/adapter/storage"
	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

const (
	demoUserEmail    = "user@nextmail.com"
	demoUserPassword = "123456"
)

// seedNamespace derives stable ids so that seeding twice inserts nothing new.
var seedNamespace = uuid.MustParse("8c5e1f7a-3a52-4b8e-9d0c-2f1d6b9e4a10")

var demoCustomers = []domain.Customer{
	{ID: "d6e15727-9fe1-4961-8c5b-ea44a9bd81aa", Name: "Evil Rabbit", Email: "evil@rabbit.com", ImageURL: "/customers/evil-rabbit.png"},
	{ID: "3958dc9e-712f-4377-85e9-fec4b6a6442a", Name: "Delba de Oliveira", Email: "delba@oliveira.com", ImageURL: "/customers/delba-de-oliveira.png"},
	{ID: "3958dc9e-742f-4377-85e9-fec4b6a6442a", Name: "Lee Robinson", Email: "lee@robinson.com", ImageURL: "/customers/lee-robinson.png"},
	{ID: "76d65c26-f784-44a2-ac19-586678f7c2f2", Name: "Michael Novotny", Email: "michael@novotny.com", ImageURL: "/customers/michael-novotny.png"},
	{ID: "cc27c14a-0acf-4f4a-a6c9-d45682c144b9", Name: "Amy Burns", Email: "amy@burns.com", ImageURL: "/customers/amy-burns.png"},
	{ID: "13d07535-c59e-4157-a011-f8d2ef4e0cbb", Name: "Balazs Orban", Email: "balazs@orban.com", ImageURL: "/customers/balazs-orban.png"},
}

type demoInvoice struct {
	customer int
	amount   int64
	status   domain.InvoiceStatus
	date     string
}

var demoInvoices = []demoInvoice{
	{0, 15795, domain.InvoiceStatusPending, "2022-12-06"},
	{1, 20348, domain.InvoiceStatusPending, "2022-11-14"},
	{4, 3040, domain.InvoiceStatusPaid, "2022-10-29"},
	{3, 44800, domain.InvoiceStatusPaid, "2023-09-10"},
	{5, 34577, domain.InvoiceStatusPending, "2023-08-05"},
	{2, 54246, domain.InvoiceStatusPending, "2023-07-16"},
	{0, 666, domain.InvoiceStatusPending, "2023-06-27"},
	{3, 32545, domain.InvoiceStatusPaid, "2023-06-09"},
	{4, 1250, domain.InvoiceStatusPaid, "2023-06-17"},
	{5, 8546, domain.InvoiceStatusPaid, "2023-06-07"},
	{1, 500, domain.InvoiceStatusPaid, "2023-08-19"},
	{5, 8945, domain.InvoiceStatusPaid, "2023-06-03"},
	{2, 1000, domain.InvoiceStatusPaid, "2022-06-05"},
}

func demoData() (storage.SeedData, error) {
	hash, err := identity.HashPassword(demoUserPassword)
	if err != nil {
		return storage.SeedData{}, fmt.Errorf("hashing demo password: %w", err)
	}

	invoices := make([]domain.Invoice, 0, len(demoInvoices))
	for i, inv := range demoInvoices {
		invoices = append(invoices, domain.Invoice{
			ID:         uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("invoice-%d", i))).String(),
			CustomerID: demoCustomers[inv.customer].ID,
			Amount:     inv.amount,
			Status:     inv.status,
			Date:       inv.date,
		})
	}

	return storage.SeedData{
		Users: []domain.User{{
			ID:       uuid.NewSHA1(seedNamespace, []byte(demoUserEmail)).String(),
			Name:     "User",
			Email:    demoUserEmail,
			Password: hash,
		}},
		Customers: demoCustomers,
		Invoices:  invoices,
	}, nil
}
