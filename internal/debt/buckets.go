package debt

// bucketBoundaries are the upper day bounds of each aging period. A record
// ages into the first period whose bound it does not exceed, so day 30 still
// sits in the first period and day 31 opens the next.
var bucketBoundaries = []struct {
	upper int
	label string
}{
	{30, "0-30 วัน"},
	{60, "31-60 วัน"},
	{90, "61-90 วัน"},
	{180, "91-180 วัน"},
	{365, "181-365 วัน"},
}

const overflowLabel = "มากกว่า 365 วัน"

// AgingPeriod is one populated bucket of the aging report.
type AgingPeriod struct {
	Period             string       `json:"period"`
	Count              int          `json:"count"`
	TotalAmount        float64      `json:"totalAmount"`
	AverageAmount      float64      `json:"averageAmount"`
	PercentageOfAmount float64      `json:"percentageOfAmount"`
	PercentageOfCount  float64      `json:"percentageOfCount"`
	Contracts          []DebtRecord `json:"contracts"`
}

// AgingReport is the full bucketized view plus its reconciling totals.
type AgingReport struct {
	Periods []AgingPeriod `json:"periods"`
	Summary AgingSummary  `json:"summary"`
}

// AgingSummary carries the ungrouped totals the buckets must reconcile with.
type AgingSummary struct {
	TotalContracts int     `json:"totalContracts"`
	TotalAmount    float64 `json:"totalAmount"`
}

// BucketIndex returns which aging period a days-overdue value falls into.
func BucketIndex(daysOverdue int) int {
	for i, b := range bucketBoundaries {
		if daysOverdue <= b.upper {
			return i
		}
	}
	return len(bucketBoundaries)
}

// AggregateBuckets partitions records into the fixed aging periods in a
// single pass. Every record lands in exactly one period, so the period sums
// reconcile with the ungrouped totals.
func AggregateBuckets(records []DebtRecord) AgingReport {
	periods := make([]AgingPeriod, len(bucketBoundaries)+1)
	for i, b := range bucketBoundaries {
		periods[i].Period = b.label
	}
	periods[len(bucketBoundaries)].Period = overflowLabel

	var grandTotal float64
	for _, rec := range records {
		i := BucketIndex(rec.DaysOverdue)
		periods[i].Count++
		periods[i].TotalAmount += rec.OverdueAmount
		periods[i].Contracts = append(periods[i].Contracts, rec)
		grandTotal += rec.OverdueAmount
	}

	for i := range periods {
		p := &periods[i]
		if p.Count > 0 {
			p.AverageAmount = p.TotalAmount / float64(p.Count)
		}
		if grandTotal > 0 {
			p.PercentageOfAmount = p.TotalAmount / grandTotal * 100
		}
		if len(records) > 0 {
			p.PercentageOfCount = float64(p.Count) / float64(len(records)) * 100
		}
	}

	return AgingReport{
		Periods: periods,
		Summary: AgingSummary{
			TotalContracts: len(records),
			TotalAmount:    grandTotal,
		},
	}
}
