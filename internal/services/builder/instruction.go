package builder

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Router program instruction discriminants.
const (
	InstructionStakeWrappedSol     uint8 = 0
	InstructionSwapViaStake        uint8 = 1
	InstructionPrefundSwapViaStake uint8 = 7
)

type swapViaStakeArgs struct {
	Amount          uint64
	BridgeStakeSeed uint32
}

type stakeWrappedSolArgs struct {
	Amount uint64
}

func encodeInstruction(discriminant uint8, args interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint8(discriminant); err != nil {
		return nil, fmt.Errorf("failed to write discriminant: %w", err)
	}
	if err := enc.Encode(args); err != nil {
		return nil, fmt.Errorf("failed to encode args: %w", err)
	}
	return buf.Bytes(), nil
}

// SwapViaStakeInstructionData encodes the swap-via-stake instruction, or its
// prefund variant when prefund is set.
func SwapViaStakeInstructionData(amount uint64, bridgeStakeSeed uint32, prefund bool) ([]byte, error) {
	discriminant := InstructionSwapViaStake
	if prefund {
		discriminant = InstructionPrefundSwapViaStake
	}
	return encodeInstruction(discriminant, &swapViaStakeArgs{
		Amount:          amount,
		BridgeStakeSeed: bridgeStakeSeed,
	})
}

func StakeWrappedSolInstructionData(amount uint64) ([]byte, error) {
	return encodeInstruction(InstructionStakeWrappedSol, &stakeWrappedSolArgs{Amount: amount})
}
