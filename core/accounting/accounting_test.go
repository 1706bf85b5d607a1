package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
)

func TestSummarize(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
	entries := []Entry{
		{Kind: KindIncome, Amount: 10000, OccurredOn: day(2026, time.January, 3)},
		{Kind: KindExpense, Amount: 2500, OccurredOn: day(2026, time.January, 20)},
		{Kind: KindExpense, Amount: 4000, OccurredOn: day(2026, time.March, 1)},
		{Kind: KindIncome, Amount: 99999, OccurredOn: day(2025, time.December, 31)},
	}

	s := Summarize(entries, 2026)
	require.Len(t, s.Months, 12)
	assert.Equal(t, "2026-01", s.Months[0].Month)
	assert.Equal(t, MonthSummary{Month: "2026-01", Income: 10000, Expense: 2500, Balance: 7500}, s.Months[0])
	assert.Equal(t, int64(0), s.Months[1].Balance)
	assert.Equal(t, int64(-4000), s.Months[2].Balance)
	assert.Equal(t, "2026-12", s.Months[11].Month)
	assert.Equal(t, int64(10000), s.Income)
	assert.Equal(t, int64(6500), s.Expense)
	assert.Equal(t, int64(3500), s.Balance)
}

type products map[string]bool

func (p products) HasActiveProduct(_ context.Context, usr user.User, code string) (bool, error) {
	return p[usr.ID+":"+code], nil
}

func TestService_CheckAccess(t *testing.T) {
	svc := NewService(nil, products{"u2:accounting": true}, nil)
	ctx := context.Background()

	assert.NoError(t, svc.CheckAccess(ctx, user.User{ID: "u1", Plan: plan.Pro}))
	assert.NoError(t, svc.CheckAccess(ctx, user.User{ID: "u2", Plan: plan.Free}))

	err := svc.CheckAccess(ctx, user.User{ID: "u3", Plan: plan.Starter})
	require.Error(t, err)
	assert.True(t, plan.IsGateError(err))
}
