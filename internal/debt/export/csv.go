package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/chaiyo-erp/chaiyo-erp/internal/debt"
)

// debtHeader is the fixed column set the finance team imports into their
// spreadsheet workflow. Order and wording are load-bearing.
var debtHeader = []string{
	"เลขที่สัญญา",
	"ชื่อลูกค้า",
	"เบอร์โทร",
	"ยอดรวม",
	"ยอดชำระแล้ว",
	"ยอดค้างชำระ",
	"วันที่ค้าง",
	"วันครบกำหนด",
	"สาขา",
	"สถานะ",
}

// WriteDebtCSV serialises the merged debt list to CSV. An empty record set
// still emits the header row so downstream imports see a valid file.
func WriteDebtCSV(w io.Writer, records []debt.DebtRecord) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(debtHeader); err != nil {
		return err
	}
	for _, rec := range records {
		dueDate := ""
		if rec.DueDate != nil {
			dueDate = rec.DueDate.Format("2006-01-02")
		}
		row := []string{
			rec.ContractNo,
			sanitizeField(rec.Customer.Name),
			rec.Customer.Phone,
			formatFloat(rec.TotalAmount),
			formatFloat(rec.PaidAmount),
			formatFloat(rec.OverdueAmount),
			strconv.Itoa(rec.DaysOverdue),
			dueDate,
			rec.BranchCode,
			string(rec.Status),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// sanitizeField swaps commas for semicolons. The file is consumed by legacy
// tooling that splits on commas regardless of quoting.
func sanitizeField(s string) string {
	return strings.ReplaceAll(s, ",", ";")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
