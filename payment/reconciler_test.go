package payment

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertState(t *testing.T, r *Reconciler, total, paid, due string) {
	t.Helper()
	st := r.State()
	assert.True(t, dec(total).Equal(st.Total), "total: got %s want %s", st.Total, total)
	assert.True(t, dec(paid).Equal(st.AmountPaid), "amount paid: got %s want %s", st.AmountPaid, paid)
	assert.True(t, dec(due).Equal(st.DueAmount), "due amount: got %s want %s", st.DueAmount, due)
}

func assertSettled(t *testing.T, r *Reconciler) {
	t.Helper()
	st := r.State()
	assert.True(t, st.Total.Equal(st.AmountPaid.Add(st.DueAmount)),
		"%s != %s + %s", st.Total, st.AmountPaid, st.DueAmount)
}

func TestNewForCreateIsFullyPaid(t *testing.T) {
	r := NewForCreate(decimal.Zero)
	assertState(t, r, "0", "0", "0")

	// Filling in the first line keeps the fully-paid assumption.
	r.ItemsChanged(dec("4499.1"))
	assertState(t, r, "4499", "4499", "0")
}

func TestNewForEdit(t *testing.T) {
	paid := dec("7000")
	r := NewForEdit(dec("7347.2"), &paid)
	assertState(t, r, "7347", "7000", "347")

	// Without a stored amount the invoice is taken as paid in full.
	r = NewForEdit(dec("6799.15"), nil)
	assertState(t, r, "6799", "6799", "0")

	// Stored amounts are rounded on load.
	odd := dec("7347.2")
	r = NewForEdit(dec("7347.2"), &odd)
	assertState(t, r, "7347", "7347", "0")
}

func TestPaidThenDueScenario(t *testing.T) {
	r := NewForCreate(dec("7347.2"))

	writes := r.EditAmountPaid(dec("7000"))
	require.Len(t, writes, 1)
	assert.Equal(t, FieldDueAmount, writes[0].Field)
	assert.False(t, writes[0].Propagate)
	assertState(t, r, "7347", "7000", "347")

	writes = r.EditDueAmount(decimal.Zero)
	require.Len(t, writes, 1)
	assert.Equal(t, FieldAmountPaid, writes[0].Field)
	assert.True(t, writes[0].Propagate)
	assert.True(t, dec("7347").Equal(writes[0].Value))
	assertState(t, r, "7347", "7347", "0")
}

func TestItemsChangedKeepsUserAmountPaid(t *testing.T) {
	r := NewForCreate(dec("1450"))
	r.EditAmountPaid(dec("1000"))

	writes := r.ItemsChanged(dec("2000"))
	require.Len(t, writes, 1)
	assert.Equal(t, FieldDueAmount, writes[0].Field)
	assertState(t, r, "2000", "1000", "1000")

	// Total falls below what was paid: the due amount goes negative (change).
	r.ItemsChanged(dec("800.4"))
	assertState(t, r, "800", "1000", "-200")
}

func TestItemsChangedZeroTotalClearsBoth(t *testing.T) {
	r := NewForCreate(dec("1450"))
	r.EditAmountPaid(dec("1000"))

	r.ItemsChanged(decimal.Zero)
	assertState(t, r, "0", "0", "0")

	// Negative totals are coerced to zero too.
	r.ItemsChanged(dec("-5"))
	assertState(t, r, "0", "0", "0")

	// The cleared amount stays cleared: the whole new total is due.
	r.ItemsChanged(dec("1450"))
	assertState(t, r, "1450", "0", "1450")
}

func TestNoOpGuard(t *testing.T) {
	r := NewForCreate(dec("4499.1"))
	writes := r.EditAmountPaid(dec("4499"))
	assert.Empty(t, writes)

	writes = r.ItemsChanged(dec("4499.2"))
	assert.Empty(t, writes, "same rounded total, nothing to write")
}

func TestCommitRoundsOnlyWhenNeeded(t *testing.T) {
	r := NewForCreate(dec("7347.2"))
	r.EditAmountPaid(dec("7000.6"))
	assertState(t, r, "7347", "7000.6", "346.4")

	writes := r.Commit(FieldAmountPaid)
	require.Len(t, writes, 2)
	assert.Equal(t, FieldAmountPaid, writes[0].Field)
	assert.True(t, writes[0].Propagate)
	assert.True(t, dec("7001").Equal(writes[0].Value))
	assert.Equal(t, FieldDueAmount, writes[1].Field)
	assert.True(t, dec("346").Equal(writes[1].Value))
	assertState(t, r, "7347", "7001", "346")

	assert.Empty(t, r.Commit(FieldAmountPaid), "already whole")
	assert.Empty(t, r.Commit(FieldDueAmount), "already whole")
}

func TestCommitDueAmount(t *testing.T) {
	r := NewForCreate(dec("100"))
	r.EditDueAmount(dec("10.5"))
	assertState(t, r, "100", "89.5", "10.5")

	writes := r.Commit(FieldDueAmount)
	require.Len(t, writes, 2)
	assertState(t, r, "100", "89", "11")
}

func TestParseField(t *testing.T) {
	f, ok := ParseField("amount_paid")
	assert.True(t, ok)
	assert.Equal(t, FieldAmountPaid, f)
	_, ok = ParseField("total")
	assert.False(t, ok)
}

func TestInvariantHoldsAfterAnySequence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	amount := func() decimal.Decimal {
		return decimal.New(rng.Int63n(2_000_000)-100_000, -2)
	}

	for run := 0; run < 50; run++ {
		r := NewForCreate(decimal.Zero)
		for step := 0; step < 40; step++ {
			switch rng.Intn(5) {
			case 0:
				r.ItemsChanged(amount())
				if r.State().Total.IsZero() {
					assert.True(t, r.State().DueAmount.IsZero())
				}
			case 1:
				r.EditAmountPaid(amount())
			case 2:
				r.EditDueAmount(amount())
			case 3:
				r.Commit(FieldAmountPaid)
			case 4:
				r.Commit(FieldDueAmount)
			}
			assertSettled(t, r)
		}
	}
}
