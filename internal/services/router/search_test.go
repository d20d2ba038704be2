package router

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lst-route-engine/internal/domain"
)

func TestFirstAvailQuote(t *testing.T) {
	t.Run("skips zero-out withdrawals", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(
			domain.WithdrawStakeQuote{Voter: voter1},
			stakeQuote(voter2, 5_000_000_000),
		)
		deposit := newFakeDepositPool(
			domain.DepositStakeQuote{TokensOut: 10, Voter: voter1},
			domain.DepositStakeQuote{TokensOut: 4_900_000_000, Voter: voter2},
		)

		wsq, dsq, err := FirstAvailQuote(5_000_000_000, withdraw, deposit)
		require.NoError(t, err)
		assert.Equal(t, voter2, wsq.Voter)
		assert.Equal(t, uint64(4_900_000_000), dsq.TokensOut)
		require.Len(t, deposit.seen, 1, "zero-out withdrawals must not reach the deposit pool")
	})

	t.Run("skips rejected deposits and returns first fit", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(
			stakeQuote(voter1, 5_000_000_000),
			stakeQuote(voter2, 6_000_000_000),
			stakeQuote(voter3, 7_000_000_000),
		)
		deposit := newFakeDepositPool(
			domain.DepositStakeQuote{TokensOut: 1, Voter: voter2},
			domain.DepositStakeQuote{TokensOut: 2, Voter: voter3},
		)

		wsq, dsq, err := FirstAvailQuote(5_000_000_000, withdraw, deposit)
		require.NoError(t, err)
		assert.Equal(t, voter2, wsq.Voter)
		assert.Equal(t, voter2, dsq.Voter)
		assert.Equal(t, 2, withdraw.calls, "search must stop at the first fit")
	})

	t.Run("no route after exhausting candidates", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(
			stakeQuote(voter1, 5_000_000_000),
			domain.WithdrawStakeQuote{Voter: voter2},
			stakeQuote(voter3, 5_000_000_000),
			stakeQuote(voter4, 5_000_000_000),
		)
		deposit := newFakeDepositPool()

		_, _, err := FirstAvailQuote(5_000_000_000, withdraw, deposit)
		assert.ErrorIs(t, err, ErrNoRouteFound)
		assert.Len(t, deposit.seen, 3)
		assert.Equal(t, 4, withdraw.calls)
	})

	t.Run("empty validator list", func(t *testing.T) {
		_, _, err := FirstAvailQuote(1, newFakeWithdrawPool(), newFakeDepositPool())
		assert.ErrorIs(t, err, ErrNoRouteFound)
	})

	t.Run("source cannot accept withdrawals", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(stakeQuote(voter1, 5_000_000_000))
		withdraw.canWithdraw = false

		_, _, err := FirstAvailQuote(5_000_000_000, withdraw, newFakeDepositPool())
		assert.ErrorIs(t, err, ErrCannotAcceptStakeWithdrawals)
		assert.Zero(t, withdraw.calls)
	})

	t.Run("withdraw error aborts", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(
			domain.WithdrawStakeQuote{Voter: voter1},
			stakeQuote(voter2, 5_000_000_000),
			stakeQuote(voter3, 5_000_000_000),
		)
		withdraw.errAt = 1
		deposit := newFakeDepositPool(domain.DepositStakeQuote{TokensOut: 1, Voter: voter3})

		_, _, err := FirstAvailQuote(5_000_000_000, withdraw, deposit)
		assert.ErrorIs(t, err, errBrokenState)
		assert.Equal(t, 2, withdraw.calls, "later candidates must not be tried after an error")
	})

	t.Run("deposit error aborts", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(
			stakeQuote(voter1, 5_000_000_000),
			stakeQuote(voter2, 5_000_000_000),
		)
		deposit := newFakeDepositPool(domain.DepositStakeQuote{TokensOut: 1, Voter: voter2})
		deposit.err = errBrokenState

		_, _, err := FirstAvailQuote(5_000_000_000, withdraw, deposit)
		assert.ErrorIs(t, err, errBrokenState)
		assert.Equal(t, 1, withdraw.calls)
	})

	t.Run("deterministic", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(
			stakeQuote(voter1, 5_000_000_000),
			stakeQuote(voter2, 5_000_000_000),
		)
		deposit := newFakeDepositPool(
			domain.DepositStakeQuote{TokensOut: 1, Voter: voter1},
			domain.DepositStakeQuote{TokensOut: 2, Voter: voter2},
		)

		w1, d1, err := FirstAvailQuote(5_000_000_000, withdraw, deposit)
		require.NoError(t, err)
		w2, d2, err := FirstAvailQuote(5_000_000_000, withdraw, deposit)
		require.NoError(t, err)
		assert.Equal(t, w1, w2)
		assert.Equal(t, d1, d2)
	})

	t.Run("pool supplied enumeration", func(t *testing.T) {
		custom := &fakeSingleCandidatePool{
			fakeWithdrawPool: newFakeWithdrawPool(stakeQuote(voter1, 5_000_000_000), stakeQuote(voter2, 5_000_000_000)),
			quote:            stakeQuote(voter3, 5_000_000_000),
		}
		deposit := newFakeDepositPool(domain.DepositStakeQuote{TokensOut: 7, Voter: voter3})

		wsq, dsq, err := FirstAvailQuote(5_000_000_000, custom, deposit)
		require.NoError(t, err)
		assert.Equal(t, voter3, wsq.Voter)
		assert.Equal(t, uint64(7), dsq.TokensOut)
		assert.Zero(t, custom.calls)
	})
}

func TestPrefundTransformWsq(t *testing.T) {
	t.Run("adds reserve", func(t *testing.T) {
		wsq := domain.WithdrawStakeQuote{LamportsOut: 1_000_000_000, LamportsStaked: 997_717_120, FeeAmount: 9, Voter: voter1}
		got := PrefundTransformWsq(wsq)
		assert.Equal(t, domain.WithdrawStakeQuote{
			LamportsOut:    1_000_000_000 + domain.StakeAccountRentExemptLamports,
			LamportsStaked: 1_000_000_000,
			FeeAmount:      9,
			Voter:          voter1,
		}, got)
	})

	t.Run("overflow gives zero out", func(t *testing.T) {
		got := PrefundTransformWsq(domain.WithdrawStakeQuote{LamportsOut: math.MaxUint64, FeeAmount: 3, Voter: voter1})
		assert.True(t, got.IsZeroOut())
		assert.Equal(t, voter1, got.Voter)
	})

	t.Run("largest value that fits", func(t *testing.T) {
		largest := uint64(math.MaxUint64) - domain.StakeAccountRentExemptLamports
		got := PrefundTransformWsq(domain.WithdrawStakeQuote{LamportsOut: largest})
		assert.Equal(t, uint64(math.MaxUint64), got.LamportsOut)
	})
}

func TestWsqPostPrefundRepay(t *testing.T) {
	wsq := domain.WithdrawStakeQuote{LamportsOut: 10_000, LamportsStaked: 7_000, FeeAmount: 5, Voter: voter1}

	got := WsqPostPrefundRepay(wsq, 3_000)
	assert.Equal(t, uint64(7_000), got.LamportsOut)
	assert.Equal(t, uint64(4_000), got.LamportsStaked)
	assert.Equal(t, uint64(5), got.FeeAmount)

	got = WsqPostPrefundRepay(wsq, 8_000)
	assert.Equal(t, uint64(2_000), got.LamportsOut)
	assert.Zero(t, got.LamportsStaked)

	got = WsqPostPrefundRepay(wsq, 20_000)
	assert.Zero(t, got.LamportsOut)
	assert.Zero(t, got.LamportsStaked)
}

func TestFirstAvailPrefundQuote(t *testing.T) {
	const split = 2_305_940

	t.Run("offers post repay quote", func(t *testing.T) {
		raw := stakeQuote(voter1, 9_900_000_000)
		withdraw := newFakeWithdrawPool(raw)
		deposit := newFakeDepositPool(domain.DepositStakeQuote{TokensOut: 9_850_000_000, Voter: voter1})

		candidate, err := FirstAvailPrefundQuote(10_000_000_000, split, withdraw, deposit)
		require.NoError(t, err)

		prefunded := PrefundTransformWsq(raw)
		assert.Equal(t, prefunded, candidate.Withdraw)
		assert.Equal(t, WsqPostPrefundRepay(prefunded, split), candidate.Bridge)
		require.Len(t, deposit.seen, 1)
		assert.Equal(t, candidate.Bridge, deposit.seen[0])
		assert.Equal(t, uint64(9_900_000_000+domain.StakeAccountRentExemptLamports-split), deposit.seen[0].LamportsOut)
	})

	t.Run("skips candidates that are not rent exempt after repay", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(
			domain.WithdrawStakeQuote{LamportsOut: split - 1, Voter: voter1},
			stakeQuote(voter2, 9_900_000_000),
		)
		deposit := newFakeDepositPool(
			domain.DepositStakeQuote{TokensOut: 1, Voter: voter1},
			domain.DepositStakeQuote{TokensOut: 2, Voter: voter2},
		)

		candidate, err := FirstAvailPrefundQuote(10_000_000_000, split, withdraw, deposit)
		require.NoError(t, err)
		assert.Equal(t, voter2, candidate.Bridge.Voter)
		assert.Len(t, deposit.seen, 1)
	})

	t.Run("skips candidates with nothing staked after repay", func(t *testing.T) {
		// prefunded: out = split + reserve, staked = split; after repay staked is 0
		withdraw := newFakeWithdrawPool(domain.WithdrawStakeQuote{LamportsOut: split, Voter: voter1})
		deposit := newFakeDepositPool(domain.DepositStakeQuote{TokensOut: 1, Voter: voter1})

		_, err := FirstAvailPrefundQuote(10_000_000_000, split, withdraw, deposit)
		assert.ErrorIs(t, err, ErrNoRouteFound)
		assert.Empty(t, deposit.seen)
	})

	t.Run("one lamport staked is enough", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(domain.WithdrawStakeQuote{LamportsOut: split + 1, Voter: voter1})
		deposit := newFakeDepositPool(domain.DepositStakeQuote{TokensOut: 1, Voter: voter1})

		candidate, err := FirstAvailPrefundQuote(10_000_000_000, split, withdraw, deposit)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), candidate.Bridge.LamportsStaked)
		assert.True(t, candidate.Bridge.IsRentExempt())
	})

	t.Run("skips overflowing candidates", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(
			domain.WithdrawStakeQuote{LamportsOut: math.MaxUint64, Voter: voter1},
			stakeQuote(voter2, 9_900_000_000),
		)
		deposit := newFakeDepositPool(
			domain.DepositStakeQuote{TokensOut: 1, Voter: voter1},
			domain.DepositStakeQuote{TokensOut: 2, Voter: voter2},
		)

		candidate, err := FirstAvailPrefundQuote(10_000_000_000, split, withdraw, deposit)
		require.NoError(t, err)
		assert.Equal(t, voter2, candidate.Deposit.Voter)
	})

	t.Run("source cannot accept withdrawals", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(stakeQuote(voter1, 9_900_000_000))
		withdraw.canWithdraw = false

		_, err := FirstAvailPrefundQuote(10_000_000_000, split, withdraw, newFakeDepositPool())
		assert.ErrorIs(t, err, ErrCannotAcceptStakeWithdrawals)
	})

	t.Run("deposit error aborts", func(t *testing.T) {
		withdraw := newFakeWithdrawPool(stakeQuote(voter1, 9_900_000_000))
		deposit := newFakeDepositPool()
		deposit.err = errBrokenState

		_, err := FirstAvailPrefundQuote(10_000_000_000, split, withdraw, deposit)
		assert.ErrorIs(t, err, errBrokenState)
	})
}

func BenchmarkFirstAvailQuote(b *testing.B) {
	quotes := make([]domain.WithdrawStakeQuote, 0, 64)
	for i := 0; i < 63; i++ {
		quotes = append(quotes, domain.WithdrawStakeQuote{Voter: voter1})
	}
	quotes = append(quotes, stakeQuote(voter2, 5_000_000_000))
	withdraw := newFakeWithdrawPool(quotes...)
	deposit := newFakeDepositPool(domain.DepositStakeQuote{TokensOut: 1, Voter: voter2})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		deposit.seen = deposit.seen[:0]
		_, _, _ = FirstAvailQuote(5_000_000_000, withdraw, deposit)
	}
}
