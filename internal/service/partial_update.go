package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iyhunko/inventory-service/internal/model"
	"github.com/iyhunko/inventory-service/internal/serviceerrors"
)

const msgInvalidFieldValue = "Valor inválido para o campo '%s': %v"

// mergeUpdates copies the recognised keys of updates into in and returns how
// many were applied. A null value clears the field. Unknown keys are ignored.
func mergeUpdates(in *model.ProductInput, updates map[string]any) (int, error) {
	changed := 0

	if v, ok := updates[model.FieldName]; ok {
		name, err := stringValue(model.FieldName, v)
		if err != nil {
			return 0, err
		}
		in.Name = name
		changed++
	}

	if v, ok := updates[model.FieldDescription]; ok {
		description, err := stringValue(model.FieldDescription, v)
		if err != nil {
			return 0, err
		}
		in.Description = description
		changed++
	}

	if v, ok := updates[model.FieldPrice]; ok {
		price, err := priceValue(v)
		if err != nil {
			return 0, err
		}
		in.Price = price
		changed++
	}

	if v, ok := updates[model.FieldStockQuantity]; ok {
		stock, err := stockValue(v)
		if err != nil {
			return 0, err
		}
		in.StockQuantity = stock
		changed++
	}

	return changed, nil
}

func stringValue(field string, v any) (*string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &val, nil
	default:
		return nil, invalidValue(field, v)
	}
}

// priceValue accepts a JSON number or a numeric string.
func priceValue(v any) (*float64, error) {
	var price float64
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		price = val
	case int:
		price = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, invalidValue(model.FieldPrice, v)
		}
		price = parsed
	default:
		return nil, invalidValue(model.FieldPrice, v)
	}

	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, invalidValue(model.FieldPrice, v)
	}
	return &price, nil
}

// stockValue accepts an integral JSON number or an integer string that fits the stock column.
func stockValue(v any) (*int, error) {
	var stock int64
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if val != math.Trunc(val) || val < math.MinInt32 || val > math.MaxInt32 {
			return nil, invalidValue(model.FieldStockQuantity, v)
		}
		stock = int64(val)
	case int:
		stock = int64(val)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 32)
		if err != nil {
			return nil, invalidValue(model.FieldStockQuantity, v)
		}
		stock = parsed
	default:
		return nil, invalidValue(model.FieldStockQuantity, v)
	}

	if stock < math.MinInt32 || stock > math.MaxInt32 {
		return nil, invalidValue(model.FieldStockQuantity, v)
	}
	result := int(stock)
	return &result, nil
}

func invalidValue(field string, v any) error {
	return serviceerrors.NewBadRequestError(fmt.Sprintf(msgInvalidFieldValue, field, v))
}
