package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/chaiyo-erp/chaiyo-erp/internal/contracts"
	"github.com/chaiyo-erp/chaiyo-erp/internal/customers"
	"github.com/chaiyo-erp/chaiyo-erp/internal/debt"
)

func TestWriteDebtCSVEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteDebtCSV(buf, nil); err != nil {
		t.Fatalf("csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	// Exactly one header row, no data rows.
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
	if records[0][0] != "เลขที่สัญญา" || records[0][9] != "สถานะ" {
		t.Fatalf("unexpected header %v", records[0])
	}
}

func TestWriteDebtCSVRows(t *testing.T) {
	due := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	rows := []debt.DebtRecord{
		{
			ContractNo:    "CT-001",
			Customer:      customers.Display{Name: "สมชาย, จำกัด", Phone: "0812345678"},
			TotalAmount:   10000,
			PaidAmount:    3000,
			OverdueAmount: 7000,
			DaysOverdue:   95,
			DueDate:       &due,
			BranchCode:    "BKK01",
			Status:        contracts.StatusActive,
			DebtStatus:    "ค้างชำระรุนแรง",
		},
	}

	buf := &bytes.Buffer{}
	if err := WriteDebtCSV(buf, rows); err != nil {
		t.Fatalf("csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(records))
	}
	row := records[1]
	if row[0] != "CT-001" {
		t.Fatalf("unexpected contract no %q", row[0])
	}
	// Commas in names are swapped for semicolons for the legacy importer.
	if row[1] != "สมชาย; จำกัด" {
		t.Fatalf("expected sanitized name, got %q", row[1])
	}
	if row[3] != "10000.00" || row[5] != "7000.00" {
		t.Fatalf("unexpected amounts %v", row)
	}
	if row[6] != "95" || row[7] != "2026-05-20" {
		t.Fatalf("unexpected aging columns %v", row)
	}
	// The status column carries the contract lifecycle status, not the aging label.
	if row[9] != string(contracts.StatusActive) {
		t.Fatalf("unexpected status column %q", row[9])
	}
}
