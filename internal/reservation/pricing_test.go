package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePrice(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		rate     int64
		discount int
		want     int64
	}{
		{name: "single day", days: 1, rate: 1000, discount: 10, want: 1000},
		{name: "one day below threshold", days: 27, rate: 1000, discount: 10, want: 27000},
		{name: "exactly at threshold", days: 28, rate: 1000, discount: 10, want: 25200},
		{name: "thirty days", days: 30, rate: 1000, discount: 10, want: 27000},
		{name: "forty days", days: 40, rate: 1000, discount: 10, want: 36000},
		{name: "no discount configured", days: 30, rate: 1000, discount: 0, want: 30000},
		{name: "full discount", days: 30, rate: 1000, discount: 100, want: 0},
		{name: "discount truncates", days: 28, rate: 101, discount: 15, want: 2828 - 424},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculatePrice(tt.days, tt.rate, tt.discount))
		})
	}
}

func TestCalculatePrice_Deterministic(t *testing.T) {
	first := CalculatePrice(45, 1234, 7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, CalculatePrice(45, 1234, 7))
	}
}
