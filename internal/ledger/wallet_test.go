package ledger

import (
	"testing"

	"github.com/grachmannico95/payments-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(s string) domain.Amount {
	return domain.MustParseAmount(s)
}

func assertBalance(t *testing.T, w *Wallet, available, held, total string) {
	t.Helper()

	b := w.Balance()
	assert.Equal(t, available, domain.FormatMoney(b.Available), "available")
	assert.Equal(t, held, domain.FormatMoney(b.Held), "held")
	assert.Equal(t, total, domain.FormatMoney(b.Total), "total")
}

func assertConsistent(t *testing.T, w *Wallet) {
	t.Helper()

	b := w.Balance()
	assert.True(t, b.Total.Equal(b.Available.Add(b.Held)), "total must equal available + held")
}

func TestWallet_Deposit(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())

	w.Deposit(amount("150.0"))

	assertBalance(t, w, "150.0000", "0.0000", "150.0000")
	assert.False(t, w.Locked())
	assert.Equal(t, domain.ClientID(1), w.Client())
}

func TestWallet_Withdraw(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())
	w.Deposit(amount("200.0"))

	err := w.Withdraw(amount("50.0"))

	require.NoError(t, err)
	assertBalance(t, w, "150.0000", "0.0000", "150.0000")
}

func TestWallet_Withdraw_FullAmountReturnsToZero(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())
	w.Deposit(amount("42.4242"))

	require.NoError(t, w.Withdraw(amount("42.4242")))

	assertBalance(t, w, "0.0000", "0.0000", "0.0000")
}

func TestWallet_Withdraw_InsufficientFunds(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())
	w.Deposit(amount("10.0"))

	err := w.Withdraw(amount("10.0001"))

	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assertBalance(t, w, "10.0000", "0.0000", "10.0000")
}

func TestWallet_DisputeAndSettle(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())
	w.Deposit(amount("300.0"))

	w.Dispute(1001, amount("100.0"))

	assertBalance(t, w, "200.0000", "100.0000", "300.0000")
	assert.True(t, w.IsDisputed(1001))

	require.NoError(t, w.SettleDispute(1001))

	assertBalance(t, w, "300.0000", "0.0000", "300.0000")
	assert.False(t, w.IsDisputed(1001))
	assert.False(t, w.Locked())
}

func TestWallet_ChargeBack(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())
	w.Deposit(amount("400.0"))
	w.Dispute(1001, amount("150.0"))

	assertBalance(t, w, "250.0000", "150.0000", "400.0000")

	require.NoError(t, w.ChargeBack(1001))

	assertBalance(t, w, "250.0000", "0.0000", "250.0000")
	assert.True(t, w.Locked())
	assert.False(t, w.IsDisputed(1001))
}

func TestWallet_SettleAndChargeBack_UnknownDispute(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())
	w.Deposit(amount("10.0"))

	assert.ErrorIs(t, w.SettleDispute(7), domain.ErrDisputeNotFound)
	assert.ErrorIs(t, w.ChargeBack(7), domain.ErrDisputeNotFound)

	assertBalance(t, w, "10.0000", "0.0000", "10.0000")
	assert.False(t, w.Locked())
}

func TestWallet_StrictPolicy_SecondSettleRejected(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())
	w.Deposit(amount("10.0"))
	w.Dispute(1, amount("10.0"))

	require.NoError(t, w.SettleDispute(1))
	assert.ErrorIs(t, w.SettleDispute(1), domain.ErrDisputeNotFound)
	assert.ErrorIs(t, w.ChargeBack(1), domain.ErrDisputeNotFound)

	assertBalance(t, w, "10.0000", "0.0000", "10.0000")
}

func TestWallet_LenientPolicy_KeepsSettledDispute(t *testing.T) {
	w := NewWallet(1, Policy{})
	w.Deposit(amount("10.0"))
	w.Dispute(1, amount("10.0"))

	require.NoError(t, w.SettleDispute(1))
	require.NoError(t, w.SettleDispute(1))

	assert.True(t, w.IsDisputed(1))
	assertBalance(t, w, "20.0000", "-10.0000", "10.0000")
	assertConsistent(t, w)
}

func TestWallet_InvariantsAcrossSequence(t *testing.T) {
	w := NewWallet(1, DefaultPolicy())

	steps := []func(){
		func() { w.Deposit(amount("100.5")) },
		func() { _ = w.Withdraw(amount("20.25")) },
		func() { w.Deposit(amount("3.3333")) },
		func() { w.Dispute(10, amount("3.3333")) },
		func() { _ = w.Withdraw(amount("1000")) },
		func() { w.Dispute(11, amount("50")) },
		func() { _ = w.SettleDispute(10) },
		func() { _ = w.ChargeBack(11) },
	}

	for i, step := range steps {
		step()
		assertConsistent(t, w)
		assert.True(t, w.Balance().Held.Equal(w.heldByDisputes()), "held mismatch after step %d", i)
	}

	assertBalance(t, w, "33.5833", "0.0000", "33.5833")
	assert.True(t, w.Locked())
}

func TestWallet_Snapshot(t *testing.T) {
	w := NewWallet(9, DefaultPolicy())
	w.Deposit(amount("5"))
	w.Dispute(1, amount("2"))

	snapshot := w.Snapshot()

	assert.Equal(t, domain.ClientID(9), snapshot.Client)
	assert.Equal(t, "3.0000", domain.FormatMoney(snapshot.Available))
	assert.Equal(t, "2.0000", domain.FormatMoney(snapshot.Held))
	assert.Equal(t, "5.0000", domain.FormatMoney(snapshot.Total))
	assert.False(t, snapshot.Locked)
}
