package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

func rate(hourly, daily, monthly, tax string) domain.RateSchedule {
	return domain.RateSchedule{
		Hourly:  decimal.RequireFromString(hourly),
		Daily:   decimal.RequireFromString(daily),
		Monthly: decimal.RequireFromString(monthly),
		TaxRate: decimal.RequireFromString(tax),
	}
}

func TestCompute(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name     string
		rate     domain.RateSchedule
		minutes  int
		durType  domain.DurationType
		expected string
	}{
		{name: "61 minutes round up to two hours", rate: rate("50", "0", "0", "0"), minutes: 61, durType: domain.DurationHourly, expected: "100"},
		{name: "exact hour", rate: rate("50", "0", "0", "0"), minutes: 60, durType: domain.DurationHourly, expected: "50"},
		{name: "125 minutes is three hours", rate: rate("40", "0", "0", "0"), minutes: 125, durType: domain.DurationHourly, expected: "120"},
		{name: "zero minutes hourly", rate: rate("50", "0", "0", "0"), minutes: 0, durType: domain.DurationHourly, expected: "0"},
		{name: "negative minutes clamp to zero", rate: rate("50", "0", "0", "0"), minutes: -30, durType: domain.DurationHourly, expected: "0"},
		{name: "daily minimum one day", rate: rate("0", "300", "0", "0"), minutes: 10, durType: domain.DurationDaily, expected: "300"},
		{name: "daily zero still one day", rate: rate("0", "300", "0", "0"), minutes: 0, durType: domain.DurationDaily, expected: "300"},
		{name: "daily partial second day", rate: rate("0", "300", "0", "0"), minutes: 1441, durType: domain.DurationDaily, expected: "600"},
		{name: "monthly minimum", rate: rate("0", "0", "5000", "0"), minutes: 60, durType: domain.DurationMonthly, expected: "5000"},
		{name: "monthly partial second month", rate: rate("0", "0", "5000", "0"), minutes: 43201, durType: domain.DurationMonthly, expected: "10000"},
		{name: "tax applied", rate: rate("50", "0", "0", "0.2"), minutes: 61, durType: domain.DurationHourly, expected: "120"},
		{name: "tax rounds half up", rate: rate("0.05", "0", "0", "0.1"), minutes: 60, durType: domain.DurationHourly, expected: "0.06"},
		{name: "negative rate treated as zero", rate: rate("-10", "0", "0", "0"), minutes: 60, durType: domain.DurationHourly, expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Compute(tt.rate, tt.minutes, tt.durType)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "expected %s, got %s", tt.expected, got)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestCompute_InvalidDurationType(t *testing.T) {
	_, err := NewCalculator().Compute(rate("50", "0", "0", "0"), 60, domain.DurationType("weekly"))
	assert.ErrorIs(t, err, domain.ErrInvalidDurationType)
}

func TestCompute_Monotonic(t *testing.T) {
	calc := NewCalculator()
	r := rate("47.5", "310", "7000", "0.18")

	for _, durType := range []domain.DurationType{domain.DurationHourly, domain.DurationDaily, domain.DurationMonthly} {
		prev := decimal.Zero
		for m := 0; m <= 3*domain.MinutesPerDay; m += 7 {
			got, err := calc.Compute(r, m, durType)
			require.NoError(t, err)
			assert.True(t, got.GreaterThanOrEqual(prev), "%s not monotonic at %d minutes", durType, m)
			prev = got
		}
	}
}

func TestBreakdown(t *testing.T) {
	b, err := NewCalculator().Breakdown(rate("50", "0", "0", "0.2"), 125, domain.DurationHourly)
	require.NoError(t, err)

	assert.Equal(t, int64(3), b.Units)
	assert.True(t, decimal.NewFromInt(150).Equal(b.Subtotal))
	assert.True(t, decimal.NewFromInt(30).Equal(b.Tax))
	assert.True(t, decimal.NewFromInt(180).Equal(b.Total))
}

func TestDifference(t *testing.T) {
	calc := NewCalculator()
	r := rate("50", "0", "0", "0")

	extra, err := calc.Difference(r, 120, 150, domain.DurationHourly)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(extra))

	extra, err = calc.Difference(r, 90, 120, domain.DurationHourly)
	require.NoError(t, err)
	assert.True(t, extra.IsZero(), "already paid for the second hour")
}
