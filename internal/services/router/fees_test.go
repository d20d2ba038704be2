package router

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lst-route-engine/internal/domain"
)

func TestNewGlobalFee(t *testing.T) {
	tests := []struct {
		name    string
		num     uint64
		denom   uint64
		wantErr bool
	}{
		{"default", 1, 1000, false},
		{"zero fee", 0, 1, false},
		{"full fee", 5, 5, false},
		{"zero denominator", 0, 0, true},
		{"numerator above denominator", 3, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, err := NewGlobalFee(tt.num, tt.denom)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGlobalFee)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, GlobalFee{Numerator: tt.num, Denominator: tt.denom}, fee)
		})
	}
}

func TestGlobalFeeApply(t *testing.T) {
	tests := []struct {
		name    string
		fee     GlobalFee
		amount  uint64
		wantFee uint64
	}{
		{"default fee", DefaultGlobalFee, 9_850_000_000, 9_850_000},
		{"floors", DefaultGlobalFee, 999, 0},
		{"zero amount", DefaultGlobalFee, 0, 0},
		{"zero fee", GlobalFee{Numerator: 0, Denominator: 1}, 12345, 0},
		{"whole amount", GlobalFee{Numerator: 1, Denominator: 1}, 12345, 12345},
		{"max amount", DefaultGlobalFee, math.MaxUint64, math.MaxUint64 / 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.fee.Apply(tt.amount)
			assert.Equal(t, tt.wantFee, res.Fee)
			assert.Equal(t, tt.amount, res.Remainder+res.Fee, "fee and remainder must sum to the amount")
		})
	}
}

func TestApproxFeesChargedOutToken(t *testing.T) {
	t.Run("ten percent", func(t *testing.T) {
		fees, err := ApproxFeesChargedOutToken(1_000_000, 100_000, 1_000_000)
		require.NoError(t, err)
		assert.Equal(t, uint64(111_111), fees)
	})

	t.Run("zero fee", func(t *testing.T) {
		fees, err := ApproxFeesChargedOutToken(1_000_000, 0, 1_000_000)
		require.NoError(t, err)
		assert.Zero(t, fees)
	})

	t.Run("fee equal to denominator", func(t *testing.T) {
		_, err := ApproxFeesChargedOutToken(1_000_000, 10, 10)
		assert.ErrorIs(t, err, ErrFeesTooHigh)
	})

	t.Run("fee above denominator", func(t *testing.T) {
		_, err := ApproxFeesChargedOutToken(1_000_000, 11, 10)
		assert.ErrorIs(t, err, ErrFeesTooHigh)
	})

	t.Run("result overflows", func(t *testing.T) {
		_, err := ApproxFeesChargedOutToken(math.MaxUint64, math.MaxUint64-1, math.MaxUint64)
		assert.ErrorIs(t, err, ErrMath)
	})
}

func TestComposeQuote(t *testing.T) {
	wsq := domain.WithdrawStakeQuote{
		LamportsOut:    9_900_000_000,
		LamportsStaked: 9_897_717_120,
		FeeAmount:      100_000_000,
		Voter:          voter1,
	}
	dsq := domain.DepositStakeQuote{TokensOut: 9_850_000_000, FeeAmount: 49_497_487, Voter: voter1}

	quote, err := ComposeQuote(DefaultGlobalFee, 10_000_000_000, wsq, dsq, destMint)
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000_000_000), quote.InAmount)
	assert.Equal(t, uint64(9_840_150_000), quote.OutAmount)
	// 9_850_000 global + 49_497_487 deposit + 99_994_924 withdraw
	assert.Equal(t, uint64(159_342_411), quote.FeeAmount)
	assert.Equal(t, destMint, quote.FeeMint)
	assert.True(t, quote.FeePctKnown)
	want := decimal.NewFromInt(159_342_411).Div(decimal.NewFromInt(9_999_492_411))
	assert.True(t, want.Equal(quote.FeePct), "fee pct %s, want %s", quote.FeePct, want)
}

func TestComposePrefundQuote(t *testing.T) {
	prefunded := PrefundTransformWsq(domain.WithdrawStakeQuote{
		LamportsOut:    9_900_000_000,
		LamportsStaked: 9_897_717_120,
		FeeAmount:      100_000_000,
		Voter:          voter1,
	})
	dsq := domain.DepositStakeQuote{TokensOut: 9_850_000_000, FeeAmount: 49_497_487, Voter: voter1}

	quote, err := ComposePrefundQuote(DefaultGlobalFee, 10_000_000_000, prefunded, dsq, 2_305_940, destMint)
	require.NoError(t, err)

	assert.Equal(t, uint64(9_840_150_000), quote.OutAmount)
	// 9_850_000 global + 49_497_487 deposit + 2_305_828 prefund + 100_018_215 withdraw
	assert.Equal(t, uint64(161_671_530), quote.FeeAmount)

	plain, err := ComposeQuote(DefaultGlobalFee, 10_000_000_000, prefunded, dsq, destMint)
	require.NoError(t, err)
	assert.Greater(t, quote.FeeAmount, plain.FeeAmount)
}

func TestComposeQuoteWithdrawalFeeGuard(t *testing.T) {
	wsq := domain.WithdrawStakeQuote{LamportsOut: 1, LamportsStaked: 1, FeeAmount: 1_000_000, Voter: voter1}
	dsq := domain.DepositStakeQuote{TokensOut: 1, Voter: voter1}

	_, err := ComposeQuote(DefaultGlobalFee, 1_000_000, wsq, dsq, destMint)
	assert.ErrorIs(t, err, ErrWithdrawalFeesTooHigh)

	_, err = ComposeQuote(DefaultGlobalFee, 1_000_000, domain.WithdrawStakeQuote{FeeAmount: 2_000_000}, dsq, destMint)
	assert.ErrorIs(t, err, ErrWithdrawalFeesTooHigh)
}

func TestComposeQuoteFeePctUnknown(t *testing.T) {
	wsq := domain.WithdrawStakeQuote{Voter: voter1}
	dsq := domain.DepositStakeQuote{Voter: voter1}

	quote, err := ComposeQuote(DefaultGlobalFee, 1_000, wsq, dsq, destMint)
	require.NoError(t, err)
	assert.False(t, quote.FeePctKnown)
	assert.True(t, quote.FeePct.IsZero())
}

func TestFeePercentage(t *testing.T) {
	pct, known := feePercentage(1, 4)
	assert.True(t, known)
	assert.Equal(t, "0.25", pct.String())

	_, known = feePercentage(1, 0)
	assert.False(t, known)
}

func BenchmarkComposeQuote(b *testing.B) {
	wsq := domain.WithdrawStakeQuote{LamportsOut: 9_900_000_000, LamportsStaked: 9_897_717_120, FeeAmount: 100_000_000, Voter: voter1}
	dsq := domain.DepositStakeQuote{TokensOut: 9_850_000_000, FeeAmount: 49_497_487, Voter: voter1}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = ComposeQuote(DefaultGlobalFee, 10_000_000_000, wsq, dsq, destMint)
	}
}
