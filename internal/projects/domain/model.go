package domain

// Data types accepted for a schema field.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeDate    = "date"
	TypeVarchar = "varchar"
	TypeInteger = "integer"
)

// DataTypes lists the closed set of accepted field types.
var DataTypes = []string{TypeString, TypeNumber, TypeDate, TypeVarchar, TypeInteger}

// FieldDefinition describes one column of a project's schema.
// Extras carries attributes the editor does not recognize; they are kept
// verbatim and re-emitted on the next round trip, never validated.
type FieldDefinition struct {
	Name          string         `json:"campo_nombre"`
	DataType      string         `json:"tipo_dato"`
	Required      bool           `json:"requerido"`
	MaxLength     *int           `json:"longitud_maxima,omitempty"`
	AllowedValues []any          `json:"valores_permitidos,omitempty"`
	IsPrimaryKey  bool           `json:"es_clave_primaria"`
	IsUnique      bool           `json:"es_unico"`
	Extras        map[string]any `json:"_extraProperties,omitempty"`
}

// ValidationRule binds one named check from the rule catalog to a field.
type ValidationRule struct {
	FieldName    string         `json:"campo_nombre"`
	RuleName     string         `json:"nombre_regla"`
	ErrorMessage string         `json:"mensaje_error"`
	Params       map[string]any `json:"valor"`
	Extras       map[string]any `json:"_extraProperties,omitempty"`
}

// TableSnapshot is the read-only view of the ingested dataset.
type TableSnapshot struct {
	TableName string           `json:"nombre_tabla"`
	Rows      []map[string]any `json:"datos"`
}

// Project is one tabular project: schema, rules and the associated dataset.
type Project struct {
	ID           int64             `json:"id,omitempty"`
	Name         string            `json:"nombre_proyecto"`
	TableName    string            `json:"nombre_tabla"`
	CreatedBy    string            `json:"creado_modificado_por,omitempty"`
	CreatedAt    string            `json:"fecha_creacion,omitempty"`
	UpdatedAt    string            `json:"fecha_actualizacion,omitempty"`
	ModifiedBy   string            `json:"usuario_modificacion,omitempty"`
	Schema       []FieldDefinition `json:"esquemas"`
	Rules        []ValidationRule  `json:"validaciones"`
	Table        *TableSnapshot    `json:"tabla_asociada,omitempty"`
	SourceFile   []byte            `json:"-"`
	SourceName   string            `json:"-"`
}

// RowError is one row-level ingestion failure, surfaced in full to the user.
type RowError struct {
	RowIndex int    `json:"fila"`
	Field    string `json:"campo"`
	Value    any    `json:"valor_incorrecto"`
	Message  string `json:"mensaje_error"`
}

// IngestReport describes the outcome of a dataset ingestion attempt.
type IngestReport struct {
	Message        string     `json:"message,omitempty"`
	RowErrors      []RowError `json:"errores,omitempty"`
	ExpectedFields []string   `json:"campos_esperados,omitempty"`
}
