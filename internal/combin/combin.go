// Package combin holds the small integer helpers the layout engine needs:
// gcd/lcm for union alignment and exhaustive permutation enumeration for
// the optimized struct search.
package combin

import (
	"errors"
	"math"
)

// ErrLcmUndefined is returned by Lcm when both operands are zero.
var ErrLcmUndefined = errors.New("lcm(0, 0) is undefined")

// ErrOverflow is returned by Add, Mul and Lcm when the result does not
// fit in an int.
var ErrOverflow = errors.New("integer overflow")

// ErrFactorialOverflow is returned by Factorial when n! does not fit in an int.
var ErrFactorialOverflow = errors.New("factorial overflows int")

// Gcd returns the greatest common divisor of x and y using Euclid's
// algorithm. Gcd(0, y) is y and Gcd(x, 0) is x. Negative inputs are taken
// by absolute value.
func Gcd(x, y int) int {
	x, y = abs(x), abs(y)
	for y != 0 {
		x, y = y, x%y
	}
	return x
}

// Lcm returns the least common multiple of x and y, or ErrOverflow when
// it does not fit in an int.
func Lcm(x, y int) (int, error) {
	g := Gcd(x, y)
	if g == 0 {
		return 0, ErrLcmUndefined
	}
	// divide first so x*y does not overflow when the result itself fits
	return Mul(abs(x/g), abs(y))
}

// MustLcm is Lcm for callers that already guarantee a positive operand
// and a result that fits.
func MustLcm(x, y int) int {
	l, err := Lcm(x, y)
	if err != nil {
		panic(err)
	}
	return l
}

// Add returns a+b for non-negative operands, or ErrOverflow.
func Add(a, b int) (int, error) {
	if a < 0 || b < 0 {
		return 0, errors.New("combin.Add: negative operand")
	}
	if a > math.MaxInt-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Mul returns a*b for non-negative operands, or ErrOverflow.
func Mul(a, b int) (int, error) {
	if a < 0 || b < 0 {
		return 0, errors.New("combin.Mul: negative operand")
	}
	if b != 0 && a > math.MaxInt/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// Factorial returns n! for n >= 0.
func Factorial(n int) (int, error) {
	if n < 0 {
		return 0, errors.New("factorial of negative number")
	}
	f := 1
	for i := 2; i <= n; i++ {
		if f > math.MaxInt/i {
			return 0, ErrFactorialOverflow
		}
		f *= i
	}
	return f, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
