package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
)

// Input is the order and payment history a period close reads.
type Input struct {
	Period         domain.Period
	ActiveAgencies []uuid.UUID
	// Completed holds completed-order totals for every agency with orders in
	// the period, including inactive ones.
	Completed map[uuid.UUID]repository.OrderTotals
	Payments  map[uuid.UUID]int64
	// PriorClosing holds closing debts from the previous period's reports.
	PriorClosing map[uuid.UUID]int64
}

type Result struct {
	Period         domain.Period
	CompanyRevenue int64
	Revenue        []domain.RevenueReport
	Debt           []domain.DebtReport
	GeneratedBy    uuid.UUID
	GeneratedAt    time.Time
}

var hundred = decimal.NewFromInt(100)

// Compile derives one revenue and one debt row per active agency, ordered by
// agency id.
func Compile(in Input) *Result {
	var company int64
	for _, t := range in.Completed {
		company += t.Amount
	}

	ids := make([]uuid.UUID, len(in.ActiveAgencies))
	copy(ids, in.ActiveAgencies)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	res := &Result{
		Period:         in.Period,
		CompanyRevenue: company,
		Revenue:        make([]domain.RevenueReport, 0, len(ids)),
		Debt:           make([]domain.DebtReport, 0, len(ids)),
	}
	for _, id := range ids {
		t := in.Completed[id]
		res.Revenue = append(res.Revenue, domain.RevenueReport{
			AgencyID:     id,
			Month:        in.Period.Month,
			Year:         in.Period.Year,
			OrderCount:   t.Count,
			TotalRevenue: t.Amount,
			Ratio:        Ratio(t.Amount, company),
		})

		opening := in.PriorClosing[id]
		paid := in.Payments[id]
		res.Debt = append(res.Debt, domain.DebtReport{
			AgencyID:    id,
			Month:       in.Period.Month,
			Year:        in.Period.Year,
			OpeningDebt: opening,
			Incurred:    t.Amount,
			Paid:        paid,
			ClosingDebt: opening + t.Amount - paid,
		})
	}
	return res
}

// Ratio is part as a percentage of whole, rounded half away from zero to two
// places. It is 0 when whole is 0.
func Ratio(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero.Round(2)
	}
	return decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)).Round(2)
}
