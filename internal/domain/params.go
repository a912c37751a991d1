package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/lisek75/uma-food-chatbot/pkg/errors"
)

// StringList reads a parameter that may be a single string or a list of
// strings. Names are kept verbatim: catalog matching is exact.
func StringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if t == "" {
			return nil, nil
		}
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, apperrors.MalformedInput(fmt.Sprintf("item name %v is not text", e))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, apperrors.MalformedInput(fmt.Sprintf("unexpected item list %v", v))
	}
}

// QuantityList reads the qty parameter, coercing each entry to an integer in
// [1, MaxLineQuantity]. Any invalid token fails the whole list.
func QuantityList(v any) ([]int, error) {
	var raw []any
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		raw = t
	default:
		raw = []any{t}
	}

	out := make([]int, 0, len(raw))
	for _, e := range raw {
		q, err := coerceInt(e)
		if err != nil {
			return nil, apperrors.MalformedInput(fmt.Sprintf("invalid quantity %v", e))
		}
		if q <= 0 {
			return nil, apperrors.MalformedInput(fmt.Sprintf("quantity must be positive, got %d", q))
		}
		if q > MaxLineQuantity {
			return nil, apperrors.MalformedInput(fmt.Sprintf("quantity %d exceeds %d", q, MaxLineQuantity))
		}
		out = append(out, int(q))
	}
	return out, nil
}

// ParseOrderID reads a numeric order id given as a number or digit string.
func ParseOrderID(v any) (int64, error) {
	if v == nil {
		return 0, apperrors.MalformedInput("order id is required")
	}
	id, err := coerceInt(v)
	if err != nil || id <= 0 {
		return 0, apperrors.MalformedInput(fmt.Sprintf("invalid order id %v", v))
	}
	return id, nil
}

// ParseConfirmation reads the confirmation parameter ("true"/"false" or a bool).
func ParseConfirmation(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, apperrors.MalformedInput(fmt.Sprintf("invalid confirmation %q", t))
		}
		return b, nil
	default:
		return false, apperrors.MalformedInput(fmt.Sprintf("invalid confirmation %v", v))
	}
}

func coerceInt(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || t > math.MaxInt32 || t < math.MinInt32 {
			return 0, fmt.Errorf("not an integer: %v", t)
		}
		return int64(t), nil
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			if n > math.MaxInt32 || n < math.MinInt32 {
				return 0, fmt.Errorf("out of range: %s", s)
			}
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return coerceInt(f)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
