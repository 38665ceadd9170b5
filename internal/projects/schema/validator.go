package schema

import (
	"fmt"

	"github.com/csvguard/csvguard-backend/internal/projects/domain"
)

// PathError is one structural violation found by the consistency validator.
// Soft errors flag content that is kept but not interpreted; they still
// surface to the user but carry the "kept" wording.
type PathError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Soft    bool   `json:"-"`
}

// ValidateProject runs every structural check over an edited project's raw
// schema and rule records. All violations are collected; an empty result
// means the project is save-eligible. The rule catalog comes from the
// current editing session.
func ValidateProject(fields, rules []map[string]any, catalog []string) []PathError {
	errs := ValidateSchema(fields)
	errs = append(errs, ValidateRules(rules, catalog)...)
	return errs
}

// ValidateSchema checks every schema record independently.
func ValidateSchema(fields []map[string]any) []PathError {
	var errs []PathError

	for i, field := range fields {
		for _, key := range sortedKeys(field) {
			if !contains(FieldAllowList, key) && key != ExtrasKey {
				errs = append(errs, PathError{
					Path:    fmt.Sprintf("esquemas[%d].%s", i, key),
					Message: fmt.Sprintf("unrecognized property %q: not part of the model, kept as-is", key),
					Soft:    true,
				})
			}
		}

		if isEmptyString(field["campo_nombre"]) {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("esquemas[%d].campo_nombre", i),
				Message: `"campo_nombre" is required`,
			})
		}

		if isEmptyString(field["tipo_dato"]) {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("esquemas[%d].tipo_dato", i),
				Message: `"tipo_dato" is required`,
			})
		} else if dt, _ := field["tipo_dato"].(string); !contains(domain.DataTypes, dt) {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("esquemas[%d].tipo_dato", i),
				Message: fmt.Sprintf("data type %q is not valid", field["tipo_dato"]),
			})
		}

		if _, ok := field["requerido"].(bool); !ok {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("esquemas[%d].requerido", i),
				Message: `"requerido" must be a boolean`,
			})
		}

		if values, present := field["valores_permitidos"]; present && values != nil {
			if _, ok := values.([]any); !ok {
				errs = append(errs, PathError{
					Path:    fmt.Sprintf("esquemas[%d].valores_permitidos", i),
					Message: `"valores_permitidos" must be a list`,
				})
			}
		}
	}

	return errs
}

// ValidateRules checks every rule record independently. Unknown rule names
// are hard errors, unlike unknown schema attributes.
func ValidateRules(rules []map[string]any, catalog []string) []PathError {
	var errs []PathError

	for i, rule := range rules {
		if isEmptyString(rule["campo_nombre"]) {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("validaciones[%d].campo_nombre", i),
				Message: `"campo_nombre" is required`,
			})
		}

		if isEmptyString(rule["mensaje_error"]) {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("validaciones[%d].mensaje_error", i),
				Message: `"mensaje_error" is required`,
			})
		}

		if isEmptyString(rule["nombre_regla"]) {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("validaciones[%d].nombre_regla", i),
				Message: `"nombre_regla" is required`,
			})
		} else if name, _ := rule["nombre_regla"].(string); !contains(catalog, name) {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("validaciones[%d].nombre_regla", i),
				Message: fmt.Sprintf("rule %q is not allowed", rule["nombre_regla"]),
			})
		}

		params, ok := rule["valor"].(map[string]any)
		if !ok || rule["valor"] == nil {
			errs = append(errs, PathError{
				Path:    fmt.Sprintf("validaciones[%d].valor", i),
				Message: `"valor" must be an object`,
			})
			continue
		}

		for _, key := range sortedKeys(params) {
			if params[key] == nil {
				errs = append(errs, PathError{
					Path:    fmt.Sprintf("validaciones[%d].valor.%s", i, key),
					Message: fmt.Sprintf("value of %q must not be null", key),
				})
			}
		}
	}

	return errs
}

func isEmptyString(v any) bool {
	s, ok := v.(string)
	return !ok || s == ""
}
