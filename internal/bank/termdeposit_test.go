package bank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 情境 C：餘額 20,000，開立 10,000 三年期定存。
func TestScenarioOpenTermDeposit(t *testing.T) {
	b := NewBank()
	a := open(t, b, "A", "20000")

	td, err := b.OpenTermDeposit(ctx, a.Number, d("10000"), 3)
	require.NoError(t, err)
	assert.Len(t, td.ID, TermDepositIDDigits)
	assert.True(t, td.Amount.Equal(d("10000")))
	assert.True(t, td.MaturityValue.Equal(d("11800")), "maturity %s", td.MaturityValue)
	assert.Equal(t, 3, td.Years)

	wantBalance(t, b, a.Number, "10000")
	acc := get(t, b, a.Number)
	require.Len(t, acc.TermDeposits, 1)
	assert.True(t, acc.TotalTermDepositValue().Equal(d("10000")))
}

func TestOpenTermDepositValidation(t *testing.T) {
	b := NewBank()
	a := open(t, b, "A", "15000")

	tests := []struct {
		name  string
		amt   string
		years int
		want  error
	}{
		{"below minimum", "9999.99", 1, ErrMinimumAmountNotMet},
		{"zero", "0", 1, ErrMinimumAmountNotMet},
		{"insufficient funds", "15000.01", 1, ErrInsufficientFunds},
		{"zero years", "10000", 0, ErrInvalidDuration},
		{"negative years", "10000", -1, ErrInvalidDuration},
		// 餘額檢查先於年期檢查
		{"funds before duration", "20000", 0, ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.OpenTermDeposit(ctx, a.Number, d(tt.amt), tt.years)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	acc := get(t, b, a.Number)
	assert.True(t, acc.Balance.Equal(d("15000")))
	assert.Empty(t, acc.TermDeposits)

	_, err := b.OpenTermDeposit(ctx, "0000000000", d("10000"), 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestOpenTermDepositExactBalance(t *testing.T) {
	b := NewBank()
	a := open(t, b, "A", "10000")

	_, err := b.OpenTermDeposit(ctx, a.Number, d("10000"), 1)
	require.NoError(t, err)
	wantBalance(t, b, a.Number, "0")
}

// 已有 10 筆定存時不論金額一律拒絕。
func TestTermDepositLimit(t *testing.T) {
	b := NewBank()
	a := open(t, b, "A", "250000")
	for i := 0; i < MaxTermDeposits; i++ {
		_, err := b.OpenTermDeposit(ctx, a.Number, d("10000"), 1+i%5)
		require.NoError(t, err)
	}

	_, err := b.OpenTermDeposit(ctx, a.Number, d("10000"), 1)
	assert.ErrorIs(t, err, ErrDepositLimitReached)
	_, err = b.OpenTermDeposit(ctx, a.Number, d("1"), 0)
	assert.ErrorIs(t, err, ErrDepositLimitReached)

	acc := get(t, b, a.Number)
	assert.Len(t, acc.TermDeposits, MaxTermDeposits)
	assert.True(t, acc.Balance.Equal(d("150000")))
	assert.True(t, acc.TotalTermDepositValue().Equal(d("100000")))

	ids := map[string]bool{}
	for _, td := range acc.TermDeposits {
		ids[td.ID] = true
	}
	assert.Len(t, ids, MaxTermDeposits)
}

func TestDashboard(t *testing.T) {
	b := NewBank()
	a := open(t, b, "Asha", "60000")
	td, err := b.OpenTermDeposit(ctx, a.Number, d("25000"), 2)
	require.NoError(t, err)
	loan, err := b.ApplyLoan(ctx, a.Number, d("2000"), 3)
	require.NoError(t, err)

	dash, err := b.Dashboard(a.Number)
	require.NoError(t, err)
	assert.Equal(t, "Asha", dash.Name)
	assert.Equal(t, a.Number, dash.Number)
	assert.True(t, dash.Balance.Equal(d("37000")))
	assert.Equal(t, Slots{Used: 1, Max: MaxLoans}, dash.LoanSlots)
	assert.Equal(t, Slots{Used: 1, Max: MaxTermDeposits}, dash.TermDepositSlots)
	require.Len(t, dash.Loans, 1)
	assert.Equal(t, loan.ID, dash.Loans[0].ID)
	assert.True(t, dash.Loans[0].Due.Equal(d("2420")))
	require.Len(t, dash.TermDeposits, 1)
	assert.Equal(t, td.ID, dash.TermDeposits[0].ID)
	assert.True(t, dash.TotalTermDepositValue.Equal(d("25000")))

	_, err = b.Dashboard("1212121212")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
