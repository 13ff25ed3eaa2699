package get_available_slots

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request модель запроса на получение свободных слотов
type Request struct {
	LocationID   int64     // ID парковки
	Start        time.Time // Начало окна
	End          time.Time // Конец окна (не включается)
	VehicleType  *string   // Фильтр по типу транспорта
	SlotType     *string   // Фильтр по типу слота
	DurationType string    // Тип тарификации для оценки стоимости; пусто - по умолчанию
}

// Response модель ответа со списком свободных слотов
type Response struct {
	LocationID   int64
	Start        time.Time
	End          time.Time
	DurationType string
	Slots        []Slot
}

// Slot свободный слот с оценкой стоимости за окно
type Slot struct {
	SlotID          int64
	Code            string
	SlotType        string
	VehicleTypes    []string
	EstimatedAmount decimal.Decimal
}
