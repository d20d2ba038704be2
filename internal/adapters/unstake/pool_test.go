package unstake

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lst-route-engine/internal/common"
	"github.com/hxuan190/lst-route-engine/internal/domain"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Address:             solana.PublicKey{0x70, 1},
		FeeAccount:          solana.PublicKey{0x70, 2},
		PoolSolReserves:     solana.PublicKey{0x70, 3},
		ProtocolFeeDest:     solana.PublicKey{0x70, 4},
		SolReservesLamports: 1_000_000_000_000,
		Fee:                 Fee{Numerator: 1, Denominator: 1000},
	}
}

func TestPrefundSplitLamports(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Snapshot)
		want    uint64
		wantErr error
	}{
		{name: "10 bps", want: 2_285_166},
		{name: "no fee", mutate: func(s *Snapshot) { s.Fee = Fee{Numerator: 0, Denominator: 1} }, want: domain.StakeAccountRentExemptLamports},
		{name: "half", mutate: func(s *Snapshot) { s.Fee = Fee{Numerator: 1, Denominator: 2} }, want: 2 * domain.StakeAccountRentExemptLamports},
		{name: "100% fee", mutate: func(s *Snapshot) { s.Fee = Fee{Numerator: 7, Denominator: 7} }, wantErr: ErrFeeTooHigh},
		{name: "drained", mutate: func(s *Snapshot) { s.SolReservesLamports = domain.StakeAccountRentExemptLamports - 1 }, wantErr: ErrInsufficientLiquidity},
		{name: "overflow", mutate: func(s *Snapshot) { s.Fee = Fee{Numerator: 1<<63 - 1, Denominator: 1 << 63} }, wantErr: ErrMath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot()
			if tt.mutate != nil {
				tt.mutate(&snap)
			}
			pool, err := New(snap)
			require.NoError(t, err)

			split, err := pool.PrefundSplitLamports()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, split)
		})
	}
}

func TestNew(t *testing.T) {
	pool, err := New(testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, common.UnstakeProgramID, pool.Snapshot().ProgramID)
	assert.Equal(t, domain.PoolTypeUnstake, pool.Type())
	assert.Equal(t, solana.PublicKey{0x70, 4}, pool.ProtocolFeeDest())

	accounts, err := pool.PrefundIxAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 5)
	assert.Equal(t, common.UnstakeProgramID, accounts[0].PublicKey)

	bad := testSnapshot()
	bad.Fee.Denominator = 0
	_, err = New(bad)
	assert.ErrorIs(t, err, ErrInvalidUnstakeSnapshot)
}
