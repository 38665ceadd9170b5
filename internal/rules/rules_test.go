package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoVacio(t *testing.T) {
	cases := []struct {
		value string
		valid bool
	}{
		{"hello", true},
		{"0", true},
		{"", false},
		{"   ", false},
	}
	for _, tc := range cases {
		t.Run("value "+tc.value, func(t *testing.T) {
			ok, _ := NoVacio{}.Validate(tc.value, nil)
			assert.Equal(t, tc.valid, ok)
		})
	}
}

func TestPositivo(t *testing.T) {
	cases := []struct {
		value string
		valid bool
	}{
		{"10", true},
		{"0", true},
		{"3.5", true},
		{"-1", false},
		{"abc", false},
	}
	for _, tc := range cases {
		t.Run("value "+tc.value, func(t *testing.T) {
			ok, _ := Positivo{}.Validate(tc.value, nil)
			assert.Equal(t, tc.valid, ok)
		})
	}
}

func TestMayorACero(t *testing.T) {
	cases := []struct {
		value string
		valid bool
	}{
		{"0.1", true},
		{"5", true},
		{"0", false},
		{"-2", false},
		{"x", false},
	}
	for _, tc := range cases {
		t.Run("value "+tc.value, func(t *testing.T) {
			ok, _ := MayorACero{}.Validate(tc.value, nil)
			assert.Equal(t, tc.valid, ok)
		})
	}
}

func TestRango(t *testing.T) {
	params := map[string]any{"min": float64(1), "max": float64(10)}

	t.Run("inside the interval", func(t *testing.T) {
		ok, _ := Rango{}.Validate("5", params)
		assert.True(t, ok)
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		ok, _ := Rango{}.Validate("1", params)
		assert.True(t, ok)
		ok, _ = Rango{}.Validate("10", params)
		assert.True(t, ok)
	})

	t.Run("outside the interval", func(t *testing.T) {
		ok, msg := Rango{}.Validate("11", params)
		assert.False(t, ok)
		assert.Equal(t, "value must be within the range 1 to 10", msg)
	})

	t.Run("non numeric value", func(t *testing.T) {
		ok, _ := Rango{}.Validate("x", params)
		assert.False(t, ok)
	})

	t.Run("non numeric params", func(t *testing.T) {
		ok, _ := Rango{}.Validate("5", map[string]any{"min": "a", "max": "b"})
		assert.False(t, ok)
	})

	t.Run("string params are coerced", func(t *testing.T) {
		ok, _ := Rango{}.Validate("5", map[string]any{"min": "1", "max": "10"})
		assert.True(t, ok)
	})
}

func TestLongitudMinima(t *testing.T) {
	params := map[string]any{"min": float64(3)}

	ok, _ := LongitudMinima{}.Validate("abc", params)
	assert.True(t, ok)

	ok, msg := LongitudMinima{}.Validate("ab", params)
	assert.False(t, ok)
	assert.Equal(t, "value must have at least 3 characters", msg)
}

func TestLongitudMaxima(t *testing.T) {
	params := map[string]any{"max": float64(3)}

	ok, _ := LongitudMaxima{}.Validate("abc", params)
	assert.True(t, ok)

	ok, msg := LongitudMaxima{}.Validate("abcd", params)
	assert.False(t, ok)
	assert.Equal(t, "value must have at most 3 characters", msg)
}

func TestNoFuturo(t *testing.T) {
	t.Run("past date passes", func(t *testing.T) {
		ok, _ := NoFuturo{}.Validate("2000-01-01", nil)
		assert.True(t, ok)
	})

	t.Run("future date fails", func(t *testing.T) {
		future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
		ok, msg := NoFuturo{}.Validate(future, nil)
		assert.False(t, ok)
		assert.Equal(t, "date must not be in the future", msg)
	})

	t.Run("invalid date fails", func(t *testing.T) {
		ok, _ := NoFuturo{}.Validate("01/01/2000", nil)
		assert.False(t, ok)
	})
}
