package catalog

// DataType classifies the values held by a [Attribute] column.
type DataType string

// Known attribute data types. [TypeUnspecified] is the zero value and means
// the attribute carries no type metadata.
const (
	TypeUnspecified DataType = ""
	TypeString      DataType = "string"
	TypeNumber      DataType = "number"
	TypeDate        DataType = "date"
)

// ParseDataType validates a data type string. The empty string is valid and
// maps to [TypeUnspecified].
func ParseDataType(s string) (DataType, error) {
	switch DataType(s) {
	case TypeUnspecified, TypeString, TypeNumber, TypeDate:
		return DataType(s), nil
	}

	return TypeUnspecified, errInvalidf("unknown data type %q", s)
}

// Operator is a filter condition comparison operator.
type Operator string

// Known filter operators.
const (
	OpEqual   Operator = "="
	OpGreater Operator = ">"
	OpLess    Operator = "<"
)

// ParseOperator validates a filter operator string.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpEqual, OpGreater, OpLess:
		return Operator(s), nil
	}

	return "", errInvalidf("unknown operator %q", s)
}

// DataSystem is a named grouping of data sources and the unit of extraction.
type DataSystem struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// DataSource is a named tabular dataset within a data system, backed at
// extraction time by one CSV payload. A source flagged Master drives the
// output cardinality; a system may hold several active masters, each
// extracted independently.
type DataSource struct {
	ID          int64  `json:"id"`
	SystemID    int64  `json:"systemId"`
	Name        string `json:"name"`
	FileName    string `json:"fileName"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	Master      bool   `json:"master"`
}

// Attribute is a named column of a data source. Name is the CSV header the
// attribute is matched against; DataType and Format drive value formatting.
type Attribute struct {
	ID       int64    `json:"id"`
	SourceID int64    `json:"sourceId"`
	Name     string   `json:"name"`
	DataType DataType `json:"dataType,omitempty"`
	Format   string   `json:"format,omitempty"`
}

// CrossRef declares that two data sources of one system are joinable. The
// individual equality edges live in [CrossRefMapping].
type CrossRef struct {
	ID       int64  `json:"id"`
	SystemID int64  `json:"systemId"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

// CrossRefMapping is a single equality edge inside a [CrossRef]:
// (source data source, source attribute) ≡ (target data source, target
// attribute). Source and target data sources must differ.
type CrossRefMapping struct {
	ID                 int64 `json:"id"`
	CrossRefID         int64 `json:"crossRefId"`
	SourceDataSourceID int64 `json:"sourceDataSourceId"`
	SourceAttributeID  int64 `json:"sourceAttributeId"`
	TargetDataSourceID int64 `json:"targetDataSourceId"`
	TargetAttributeID  int64 `json:"targetAttributeId"`
}

// Canonical is an entry in the global canonical vocabulary (SRCM). Each
// entry becomes one output column; the column order is the catalog order,
// which this package fixes as insertion order (ascending ID).
type Canonical struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Binding points at one attribute of one data source.
type Binding struct {
	SourceID    int64 `json:"sourceId"`
	AttributeID int64 `json:"attributeId"`
}

// DataMapping binds one canonical attribute, within one data system, to a
// primary source attribute and an optional secondary fallback. At most one
// mapping may exist per (system, canonical) pair.
type DataMapping struct {
	ID          int64    `json:"id"`
	SystemID    int64    `json:"systemId"`
	CanonicalID int64    `json:"canonicalId"`
	Primary     Binding  `json:"primary"`
	Secondary   *Binding `json:"secondary,omitempty"`
}

// FilterCondition is a stored row predicate. It is catalog data only: the
// extraction engine does not evaluate filters (see the row-filter extension
// point on the extractor).
type FilterCondition struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	SystemID    int64    `json:"systemId"`
	SourceID    int64    `json:"sourceId"`
	AttributeID int64    `json:"attributeId"`
	Operator    Operator `json:"operator"`
	Value       string   `json:"value"`
}
