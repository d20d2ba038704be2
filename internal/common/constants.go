// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID  = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	Token2022ID     = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	ATAProgramID    = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	SystemProgramID = solana.SystemProgramID
	StakeProgramID  = solana.StakeProgramID

	// StakedexProgramID is the default router program; overridable through STAKEDEX_PROGRAM_ID.
	StakedexProgramID     = solana.MustPublicKeyFromBase58("stkitrT1Uoy18Dk1fTrgPw8W6MVzoCfYoAFT4MLsmhq")
	SplStakePoolProgramID = solana.MustPublicKeyFromBase58("SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy")
	UnstakeProgramID      = solana.MustPublicKeyFromBase58("unpXTU2Ndrc7WWNyEhQWe4udTzSibLPi25SLv2cLvvT")

	// WrappedSolMint stands for native SOL on the SOL deposit route.
	WrappedSolMint = solana.SolMint

	BridgeStakeSeed  = "bridge_stake"
	SlumdogStakeSeed = "slumdog_stake"
	FeeTokenSeed     = "fee"
)
