package attendance

import (
	"math"

	"github.com/cmlabs-hris/campus-attendance-go/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

var (
	one        = decimal.NewFromInt(1)
	maxClasses = decimal.NewFromInt(math.MaxInt32)
)

// ClassesNeededForThreshold returns the smallest x >= 0 such that
// (present+x)/(total+x) >= threshold, i.e. how many consecutive classes the
// student has to attend, with no absences, to reach the threshold.
//
// x = ceil((t*total - present) / (1 - t)), evaluated in decimal arithmetic.
// For t = 0.75 this is ceil(3*total - 4*present).
func ClassesNeededForThreshold(present, total int, threshold float64) (int, error) {
	if math.IsNaN(threshold) || threshold <= 0 || threshold >= 1 {
		return 0, attendance.ErrInvalidThreshold
	}
	if present < 0 || total < 0 {
		return 0, attendance.ErrNegativeCount
	}
	if present > total {
		return 0, attendance.ErrPresentExceeds
	}
	if total == 0 {
		return 0, nil
	}

	t := decimal.NewFromFloat(threshold)
	p := decimal.NewFromInt(int64(present))
	n := decimal.NewFromInt(int64(total))

	if meetsThreshold(p, n, t) {
		return 0, nil
	}

	needed := t.Mul(n).Sub(p).Div(one.Sub(t)).Ceil()
	if needed.IsNegative() {
		needed = decimal.Zero
	}
	// Bounded so the adjusted count fits an int on every platform.
	if needed.GreaterThanOrEqual(maxClasses) {
		return 0, attendance.ErrProjectionOverflow
	}

	// Div rounds at decimal.DivisionPrecision, which can leave the ceiling off by one.
	if !meetsThreshold(p.Add(needed), n.Add(needed), t) {
		needed = needed.Add(one)
	} else if needed.IsPositive() {
		prev := needed.Sub(one)
		if meetsThreshold(p.Add(prev), n.Add(prev), t) {
			needed = prev
		}
	}

	return int(needed.IntPart()), nil
}

// meetsThreshold reports present/total >= t without dividing.
func meetsThreshold(present, total, t decimal.Decimal) bool {
	return present.GreaterThanOrEqual(t.Mul(total))
}

// BuildProjection wraps ClassesNeededForThreshold for a computed summary.
func BuildProjection(summary attendance.Summary, threshold float64) (attendance.Projection, error) {
	needed, err := ClassesNeededForThreshold(summary.PresentClasses, summary.TotalClasses, threshold)
	if err != nil {
		return attendance.Projection{}, err
	}

	return attendance.Projection{
		Threshold:      threshold,
		ClassesNeeded:  needed,
		MeetsThreshold: summary.TotalClasses > 0 && needed == 0,
	}, nil
}
