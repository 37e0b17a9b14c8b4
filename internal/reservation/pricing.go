package reservation

// MonthlyDiscountThresholdDays is the stay length from which the office's
// monthly discount applies.
const MonthlyDiscountThresholdDays = 28

// CalculatePrice returns the total for a stay of days at dailyRate.
// Stays of at least MonthlyDiscountThresholdDays get discountPercent off,
// with the discount amount truncated toward zero.
func CalculatePrice(days int, dailyRate int64, discountPercent int) int64 {
	base := int64(days) * dailyRate
	if days >= MonthlyDiscountThresholdDays && discountPercent > 0 {
		return base - base*int64(discountPercent)/100
	}
	return base
}
