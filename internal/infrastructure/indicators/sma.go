package indicators

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotEnoughData = errors.New("not enough data for period")

// Sum returns the exact total of the last period values. Moving-average
// comparisons are made on these sums; dividing first would round the mean.
func Sum(data []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period < 1 {
		return decimal.Zero, errors.New("period must be >= 1")
	}
	if len(data) < period {
		return decimal.Zero, ErrNotEnoughData
	}

	sum := decimal.Zero
	for _, v := range data[len(data)-period:] {
		sum = sum.Add(v)
	}
	return sum, nil
}
