package common

import (
	"math"
	"sync"

	"github.com/holiman/uint256"
)

// Object pool for zero-allocation hot path
var uint256Pool = sync.Pool{
	New: func() interface{} {
		return new(uint256.Int)
	},
}

// GetU256 gets a uint256.Int from the pool
func GetU256() *uint256.Int {
	return uint256Pool.Get().(*uint256.Int)
}

// PutU256 returns a uint256.Int to the pool
func PutU256(v *uint256.Int) {
	v.Clear()
	uint256Pool.Put(v)
}

// MulDiv performs floor((a * b) / c) with a wide intermediate.
// ok is false if c is zero or the quotient does not fit in uint64.
func MulDiv(a, b, c uint64) (uint64, bool) {
	if c == 0 {
		return 0, false
	}
	result := GetU256()
	temp := GetU256()
	defer func() {
		PutU256(result)
		PutU256(temp)
	}()

	result.SetUint64(a)
	temp.SetUint64(b)
	result.Mul(result, temp)
	temp.SetUint64(c)
	result.Div(result, temp)

	if !result.IsUint64() {
		return 0, false
	}
	return result.Uint64(), true
}

// MulDivCeil performs ceil((a * b) / c) with a wide intermediate.
func MulDivCeil(a, b, c uint64) (uint64, bool) {
	if c == 0 {
		return 0, false
	}
	result := GetU256()
	temp := GetU256()
	defer func() {
		PutU256(result)
		PutU256(temp)
	}()

	result.SetUint64(a)
	temp.SetUint64(b)
	result.Mul(result, temp)
	// a*b < 2^128, adding c-1 cannot overflow 256 bits
	temp.SetUint64(c - 1)
	result.Add(result, temp)
	temp.SetUint64(c)
	result.Div(result, temp)

	if !result.IsUint64() {
		return 0, false
	}
	return result.Uint64(), true
}

// CheckedAdd returns a + b, ok is false on overflow.
func CheckedAdd(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// SaturatingSub returns a - b clamped at zero.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
