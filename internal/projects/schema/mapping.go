package schema

import "github.com/csvguard/csvguard-backend/internal/projects/domain"

// FieldFromRecord maps a filtered schema record onto the typed model.
// Unrecognized attributes ride along in the extras bag untouched.
func FieldFromRecord(record map[string]any) domain.FieldDefinition {
	field := domain.FieldDefinition{
		Name:         asString(record["campo_nombre"]),
		DataType:     asString(record["tipo_dato"]),
		Required:     asBool(record["requerido"]),
		IsPrimaryKey: asBool(record["es_clave_primaria"]),
		IsUnique:     asBool(record["es_unico"]),
	}

	if n, ok := asInt(record["longitud_maxima"]); ok {
		field.MaxLength = &n
	}
	if values, ok := record["valores_permitidos"].([]any); ok {
		field.AllowedValues = values
	}
	if extras, ok := record[ExtrasKey].(map[string]any); ok && len(extras) > 0 {
		field.Extras = extras
	}

	return field
}

// RuleFromRecord maps a filtered rule record onto the typed model.
func RuleFromRecord(record map[string]any) domain.ValidationRule {
	rule := domain.ValidationRule{
		FieldName:    asString(record["campo_nombre"]),
		RuleName:     asString(record["nombre_regla"]),
		ErrorMessage: asString(record["mensaje_error"]),
	}

	if params, ok := record["valor"].(map[string]any); ok {
		rule.Params = params
	} else {
		rule.Params = map[string]any{}
	}
	if extras, ok := record[ExtrasKey].(map[string]any); ok && len(extras) > 0 {
		rule.Extras = extras
	}

	return rule
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
