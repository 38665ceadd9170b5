package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rule is one named check from the validation catalog. Validate receives the
// raw CSV cell value plus the parameters bound to the rule in the project
// and returns whether the value passes, with a message when it does not.
type Rule interface {
	Name() string
	RequiredParams() []string
	Validate(value string, params map[string]any) (bool, string)
}

const dateLayout = "2006-01-02"

// NoVacio rejects empty values.
type NoVacio struct{}

func (NoVacio) Name() string             { return "no_vacio" }
func (NoVacio) RequiredParams() []string { return nil }

func (NoVacio) Validate(value string, _ map[string]any) (bool, string) {
	if strings.TrimSpace(value) == "" {
		return false, "value must not be empty"
	}
	return true, ""
}

// Positivo rejects negative numbers.
type Positivo struct{}

func (Positivo) Name() string             { return "positivo" }
func (Positivo) RequiredParams() []string { return nil }

func (Positivo) Validate(value string, _ map[string]any) (bool, string) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false, "value is not a number"
	}
	if n < 0 {
		return false, "value must be positive"
	}
	return true, ""
}

// MayorACero rejects numbers that are not strictly greater than zero.
type MayorACero struct{}

func (MayorACero) Name() string             { return "mayor_a_cero" }
func (MayorACero) RequiredParams() []string { return nil }

func (MayorACero) Validate(value string, _ map[string]any) (bool, string) {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false, "value is not a number"
	}
	if n <= 0 {
		return false, "value must be greater than zero"
	}
	return true, ""
}

// Rango rejects numbers outside the [min, max] interval.
type Rango struct{}

func (Rango) Name() string             { return "rango" }
func (Rango) RequiredParams() []string { return []string{"min", "max"} }

func (Rango) Validate(value string, params map[string]any) (bool, string) {
	min, okMin := asFloat(params["min"])
	max, okMax := asFloat(params["max"])
	if !okMin || !okMax {
		return false, `parameters "min" and "max" must be numbers`
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false, "value is not a number"
	}
	if n < min || n > max {
		return false, fmt.Sprintf("value must be within the range %g to %g", min, max)
	}
	return true, ""
}

// LongitudMinima rejects strings shorter than min characters.
type LongitudMinima struct{}

func (LongitudMinima) Name() string             { return "longitud_minima" }
func (LongitudMinima) RequiredParams() []string { return []string{"min"} }

func (LongitudMinima) Validate(value string, params map[string]any) (bool, string) {
	min, ok := asFloat(params["min"])
	if !ok {
		return false, `parameter "min" must be a number`
	}
	if len(value) < int(min) {
		return false, fmt.Sprintf("value must have at least %d characters", int(min))
	}
	return true, ""
}

// LongitudMaxima rejects strings longer than max characters.
type LongitudMaxima struct{}

func (LongitudMaxima) Name() string             { return "longitud_maxima" }
func (LongitudMaxima) RequiredParams() []string { return []string{"max"} }

func (LongitudMaxima) Validate(value string, params map[string]any) (bool, string) {
	max, ok := asFloat(params["max"])
	if !ok {
		return false, `parameter "max" must be a number`
	}
	if len(value) > int(max) {
		return false, fmt.Sprintf("value must have at most %d characters", int(max))
	}
	return true, ""
}

// NoFuturo rejects dates after today.
type NoFuturo struct{}

func (NoFuturo) Name() string             { return "no_futuro" }
func (NoFuturo) RequiredParams() []string { return nil }

func (NoFuturo) Validate(value string, _ map[string]any) (bool, string) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return false, "value is not a valid date"
	}
	if date.After(time.Now()) {
		return false, "date must not be in the future"
	}
	return true, ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
