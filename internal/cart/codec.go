package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// unitRecord — сохраняемое представление одной единицы корзины.
type unitRecord struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Image        string          `json:"image,omitempty"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
}

// Encode сериализует корзину в JSON-массив единиц.
func Encode(c *Cart) ([]byte, error) {
	records := make([]unitRecord, 0, c.Len())
	for _, unit := range c.units {
		records = append(records, unitRecord{
			ID:           unit.ID,
			Name:         unit.Name,
			Price:        unit.Price,
			Stock:        unit.Stock,
			Image:        unit.Image,
			CategoryID:   unit.CategoryID,
			CategoryName: unit.CategoryName,
		})
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal cart: %w", err)
	}
	return payload, nil
}

// Decode восстанавливает корзину из JSON-массива. Пустой payload даёт пустую корзину.
func Decode(payload []byte) (*Cart, error) {
	if len(payload) == 0 {
		return New(), nil
	}

	var records []unitRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	units := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		units = append(units, domain.Product{
			ID:           rec.ID,
			Name:         rec.Name,
			Price:        rec.Price,
			Stock:        rec.Stock,
			Image:        rec.Image,
			CategoryID:   rec.CategoryID,
			CategoryName: rec.CategoryName,
		})
	}
	return &Cart{units: units}, nil
}
