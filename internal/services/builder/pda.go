package builder

import (
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/lst-route-engine/internal/common"
)

type pdaKey struct {
	program solana.PublicKey
	kind    string
	a       solana.PublicKey
	seed    uint32
}

var (
	pdaCache   = make(map[pdaKey]solana.PublicKey)
	pdaCacheMu sync.RWMutex
)

func cachedPDA(key pdaKey, seeds [][]byte) (solana.PublicKey, error) {
	pdaCacheMu.RLock()
	if cached, ok := pdaCache[key]; ok {
		pdaCacheMu.RUnlock()
		return cached, nil
	}
	pdaCacheMu.RUnlock()

	pda, _, err := solana.FindProgramAddress(seeds, key.program)
	if err != nil {
		return solana.PublicKey{}, err
	}

	pdaCacheMu.Lock()
	pdaCache[key] = pda
	pdaCacheMu.Unlock()

	return pda, nil
}

// GetBridgeStakeAddress derives the transient stake account that carries the
// withdrawn stake into the destination pool. seed lets one user run several
// swaps in parallel.
func GetBridgeStakeAddress(programID, user solana.PublicKey, seed uint32) (solana.PublicKey, error) {
	seedLE := make([]byte, 4)
	binary.LittleEndian.PutUint32(seedLE, seed)
	return cachedPDA(
		pdaKey{program: programID, kind: common.BridgeStakeSeed, a: user, seed: seed},
		[][]byte{[]byte(common.BridgeStakeSeed), user[:], seedLE},
	)
}

// GetSlumdogStakeAddress derives the stake account split off the bridge stake
// to repay the prefund.
func GetSlumdogStakeAddress(programID, bridgeStake solana.PublicKey) (solana.PublicKey, error) {
	return cachedPDA(
		pdaKey{program: programID, kind: common.SlumdogStakeSeed, a: bridgeStake},
		[][]byte{[]byte(common.SlumdogStakeSeed), bridgeStake[:]},
	)
}

// GetFeeTokenAccountAddress derives the router's fee account for mint.
func GetFeeTokenAccountAddress(programID, mint solana.PublicKey) (solana.PublicKey, error) {
	return cachedPDA(
		pdaKey{program: programID, kind: common.FeeTokenSeed, a: mint},
		[][]byte{[]byte(common.FeeTokenSeed), mint[:]},
	)
}

type ataKey struct {
	Wallet       solana.PublicKey
	Mint         solana.PublicKey
	TokenProgram solana.PublicKey
}

var (
	ataCache   = make(map[ataKey]solana.PublicKey)
	ataCacheMu sync.RWMutex
)

func GetATAAddressForMint(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	key := ataKey{Wallet: wallet, Mint: mint, TokenProgram: tokenProgram}

	ataCacheMu.RLock()
	if cached, ok := ataCache[key]; ok {
		ataCacheMu.RUnlock()
		return cached, 0, nil
	}
	ataCacheMu.RUnlock()

	ata, bump, err := solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		common.ATAProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, err
	}

	ataCacheMu.Lock()
	ataCache[key] = ata
	ataCacheMu.Unlock()

	return ata, bump, nil
}

func GetATAAddress(wallet, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return GetATAAddressForMint(wallet, mint, common.TokenProgramID)
}
