package schema

import "sort"

// ExtrasKey holds the opaque bag of unrecognized attributes inside a
// filtered record. Attributes in the bag are never validated or dropped.
const ExtrasKey = "_extraProperties"

// FieldAllowList is the set of schema attributes the editor interprets.
var FieldAllowList = []string{
	"campo_nombre",
	"tipo_dato",
	"requerido",
	"longitud_maxima",
	"valores_permitidos",
	"es_clave_primaria",
	"es_unico",
}

// RuleAllowList is the set of validation-rule attributes the editor interprets.
var RuleAllowList = []string{
	"campo_nombre",
	"nombre_regla",
	"mensaje_error",
	"valor",
}

// FilterField partitions a raw schema record into recognized attributes and
// an extras bag stored under ExtrasKey.
func FilterField(record map[string]any) map[string]any {
	return filter(record, FieldAllowList)
}

// FilterRule partitions a raw rule record into recognized attributes and an
// extras bag stored under ExtrasKey.
func FilterRule(record map[string]any) map[string]any {
	return filter(record, RuleAllowList)
}

// Merge flattens the extras bag back into the record, restoring the original
// key set. Merge(FilterField(r)) has the same keys and values as r.
func Merge(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		if k == ExtrasKey {
			continue
		}
		out[k] = v
	}
	if extras, ok := record[ExtrasKey].(map[string]any); ok {
		for k, v := range extras {
			out[k] = v
		}
	}
	return out
}

func filter(record map[string]any, allowed []string) map[string]any {
	filtered := make(map[string]any, len(record))
	extras := make(map[string]any)

	for k, v := range record {
		if contains(allowed, k) {
			filtered[k] = v
		} else if k != ExtrasKey {
			extras[k] = v
		}
	}

	// A pre-existing bag is merged, so filtering is idempotent.
	if prev, ok := record[ExtrasKey].(map[string]any); ok {
		for k, v := range prev {
			extras[k] = v
		}
	}

	filtered[ExtrasKey] = extras
	return filtered
}

func contains(list []string, key string) bool {
	for _, item := range list {
		if item == key {
			return true
		}
	}
	return false
}

// sortedKeys returns a record's keys in stable order for deterministic
// error reporting.
func sortedKeys(record map[string]any) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
