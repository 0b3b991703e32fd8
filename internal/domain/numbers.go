package domain

import (
	"math/big"
	"strconv"
)

const (
	PropertyArmstrong = "armstrong"
	PropertyEven      = "even"
	PropertyOdd       = "odd"
)

// Trial division is used up to this magnitude, above it the checks switch to
// exact shortcuts with the same results.
const trialDivisionLimit = 1_000_000_000_000

// Every perfect number representable as an int64.
// No odd perfect number exists below 10^1500.
var perfectNumbers = []uint64{
	6,
	28,
	496,
	8128,
	33550336,
	8589869056,
	137438691328,
	2305843008139952128,
}

type Classification struct {
	Number     int64
	IsPrime    bool
	IsPerfect  bool
	Properties []string
	DigitSum   int
}

// Classify computes every property of n once
func Classify(n int64) Classification {
	properties := make([]string, 0, 2)
	if IsArmstrong(n) {
		properties = append(properties, PropertyArmstrong)
	}
	properties = append(properties, Parity(n))

	return Classification{
		Number:     n,
		IsPrime:    IsPrime(n),
		IsPerfect:  IsPerfect(n),
		Properties: properties,
		DigitSum:   DigitSum(n),
	}
}

// magnitude returns |n| without overflowing on math.MinInt64
func magnitude(n int64) uint64 {
	if n < 0 {
		return uint64(-(n + 1)) + 1
	}
	return uint64(n)
}

func IsPrime(n int64) bool {
	if n < 2 {
		return false
	}

	if n > trialDivisionLimit {
		// Baillie-PSW, exact for all 64 bit inputs
		return big.NewInt(n).ProbablyPrime(0)
	}

	for i := int64(2); i <= n/i; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

func IsPerfect(n int64) bool {
	if n <= 1 {
		return false
	}

	if n > trialDivisionLimit {
		for _, perfect := range perfectNumbers {
			if uint64(n) == perfect {
				return true
			}
		}
		return false
	}

	sum := int64(1)
	for i := int64(2); i <= n/i; i++ {
		if n%i != 0 {
			continue
		}
		sum += i
		if other := n / i; other != i {
			sum += other
		}
		if sum > n {
			return false
		}
	}
	return sum == n
}

// IsArmstrong checks |n|, so the result does not depend on the sign
func IsArmstrong(n int64) bool {
	m := magnitude(n)
	digits := strconv.FormatUint(m, 10)
	k := len(digits)

	sum := uint64(0)
	for _, char := range digits {
		digit := uint64(char - '0')

		power := uint64(1)
		for range k {
			power *= digit
		}

		if power > m-sum {
			return false
		}
		sum += power
	}

	return sum == m
}

func DigitSum(n int64) int {
	m := magnitude(n)
	sum := 0
	for m > 0 {
		sum += int(m % 10)
		m /= 10
	}
	return sum
}

func Parity(n int64) string {
	if n%2 == 0 {
		return PropertyEven
	}
	return PropertyOdd
}
