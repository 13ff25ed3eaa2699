package fees

import (
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// currencyPlaces точность денежных сумм
const currencyPlaces = 2

// Breakdown расчёт стоимости с разбивкой на налог
type Breakdown struct {
	Units    int64           // Количество оплачиваемых часов/дней/месяцев
	Subtotal decimal.Decimal // До налога
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculator калькулятор стоимости парковки
// Не имеет состояния, безопасен для конкурентного использования
type Calculator struct{}

// NewCalculator создает калькулятор
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute возвращает итоговую стоимость с налогом
func (c *Calculator) Compute(rate domain.RateSchedule, durationMinutes int, durationType domain.DurationType) (decimal.Decimal, error) {
	b, err := c.Breakdown(rate, durationMinutes, durationType)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Total, nil
}

// Breakdown считает стоимость по правилам:
//   - hourly: ceil(m/60) * hourly, неполный час всегда округляется вверх
//   - daily: max(1, ceil(m/1440)) * daily
//   - monthly: max(1, ceil(m/43200)) * monthly
//
// Налог применяется к сумме, итог округляется half-up до копеек.
func (c *Calculator) Breakdown(rate domain.RateSchedule, durationMinutes int, durationType domain.DurationType) (Breakdown, error) {
	if durationMinutes < 0 {
		durationMinutes = 0
	}

	var (
		units     int64
		unitPrice decimal.Decimal
	)

	switch durationType {
	case domain.DurationHourly:
		units = ceilDiv(durationMinutes, domain.MinutesPerHour)
		unitPrice = rate.Hourly
	case domain.DurationDaily:
		units = max(1, ceilDiv(durationMinutes, domain.MinutesPerDay))
		unitPrice = rate.Daily
	case domain.DurationMonthly:
		units = max(1, ceilDiv(durationMinutes, domain.MinutesPerMonth))
		unitPrice = rate.Monthly
	default:
		return Breakdown{}, domain.ErrInvalidDurationType
	}

	unitPrice = nonNegative(unitPrice)
	taxRate := nonNegative(rate.TaxRate)

	subtotal := unitPrice.Mul(decimal.NewFromInt(units))
	total := subtotal.Mul(decimal.NewFromInt(1).Add(taxRate)).Round(currencyPlaces)
	subtotal = subtotal.Round(currencyPlaces)

	return Breakdown{
		Units:    units,
		Subtotal: subtotal,
		Tax:      total.Sub(subtotal),
		Total:    total,
	}, nil
}

// Difference возвращает доплату при увеличении длительности с fromMinutes до toMinutes
// Считается как разница полных стоимостей, поэтому округление вверх не применяется дважды
func (c *Calculator) Difference(rate domain.RateSchedule, fromMinutes, toMinutes int, durationType domain.DurationType) (decimal.Decimal, error) {
	before, err := c.Compute(rate, fromMinutes, durationType)
	if err != nil {
		return decimal.Zero, err
	}
	after, err := c.Compute(rate, toMinutes, durationType)
	if err != nil {
		return decimal.Zero, err
	}
	return nonNegative(after.Sub(before)), nil
}

func ceilDiv(minutes, unit int) int64 {
	if minutes <= 0 {
		return 0
	}
	return int64((minutes + unit - 1) / unit)
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
