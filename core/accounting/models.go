package accounting

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

const (
	KindIncome  = "income"
	KindExpense = "expense"
)

type Entry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ProjectID  string    `json:"project_id,omitempty"`
	Kind       string    `json:"kind"`
	Category   string    `json:"category"`
	Label      string    `json:"label"`
	Amount     int64     `json:"amount"` // cents
	OccurredOn time.Time `json:"occurred_on"`
	CreatedAt  time.Time `json:"created_at"`
}

type NewEntry struct {
	ProjectID  string     `json:"project_id" validate:"omitempty,uuid"`
	Kind       string     `json:"kind" validate:"required,oneof=income expense"`
	Category   string     `json:"category" validate:"max=80"`
	Label      string     `json:"label" validate:"required,max=200"`
	Amount     int64      `json:"amount" validate:"gt=0"`
	OccurredOn *time.Time `json:"occurred_on"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.ProjectID = core.CleanString(ne.ProjectID)
	ne.Kind = core.CleanString(ne.Kind, true /* lower */)
	ne.Category = core.CleanString(ne.Category)
	ne.Label = core.CleanString(ne.Label)
	return validate.Struct(ne)
}

type QueryFilter struct {
	ProjectID string `query:"project_id"`
	Kind      string `query:"kind"`
	Year      int    `query:"year"`
}

func (qf *QueryFilter) Clean() {
	qf.ProjectID = core.CleanString(qf.ProjectID)
	qf.Kind = core.CleanString(qf.Kind, true /* lower */)
}

type MonthSummary struct {
	Month   string `json:"month"` // YYYY-MM
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Balance int64  `json:"balance"`
}

type Summary struct {
	Year    int            `json:"year"`
	Income  int64          `json:"income"`
	Expense int64          `json:"expense"`
	Balance int64          `json:"balance"`
	Months  []MonthSummary `json:"months"`
}

// Summarize totals the entries of year, month by month.
// Entries outside of year are ignored.
func Summarize(entries []Entry, year int) Summary {
	s := Summary{Year: year, Months: make([]MonthSummary, 12)}
	for m := range s.Months {
		s.Months[m].Month = time.Date(year, time.Month(m+1), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	}
	for _, e := range entries {
		on := e.OccurredOn.UTC()
		if on.Year() != year {
			continue
		}
		ms := &s.Months[on.Month()-1]
		switch e.Kind {
		case KindIncome:
			ms.Income += e.Amount
			s.Income += e.Amount
		case KindExpense:
			ms.Expense += e.Amount
			s.Expense += e.Amount
		}
	}
	for m := range s.Months {
		s.Months[m].Balance = s.Months[m].Income - s.Months[m].Expense
	}
	s.Balance = s.Income - s.Expense
	return s
}
