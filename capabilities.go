package batchupdate

// Feature is a piece of SQL syntax whose support differs between dialects.
type Feature int

const (
	// UPDATE t SET ... FROM relation WHERE ...
	FeatureUpdateFrom Feature = iota
	// UPDATE t JOIN (SELECT ... UNION ALL ...) AS src ON ... SET ...
	FeatureUpdateJoin
	// Backslash is an escape character inside string literals
	FeatureBackslashEscape
	// Booleans are written as TRUE/FALSE rather than 1/0
	FeatureBooleanLiteral
	// Columns may be declared without a type
	FeatureTypeAffinity
)

// Capabilities defines which SQL features are supported by each dialect
var Capabilities = map[Dialect]map[Feature]bool{
	DialectPostgres: {
		FeatureUpdateFrom:     true,
		FeatureBooleanLiteral: true,
	},
	DialectMySQL: {
		FeatureUpdateJoin:      true,
		FeatureBackslashEscape: true,
	},
	DialectMariaDB: {
		FeatureUpdateJoin:      true,
		FeatureBackslashEscape: true,
	},
	DialectSQLite: {
		FeatureUpdateFrom:   true,
		FeatureTypeAffinity: true,
	},
	DialectDuckDB: {
		FeatureUpdateFrom:     true,
		FeatureBooleanLiteral: true,
	},
}

// Supports reports whether the dialect understands the feature.
func (d Dialect) Supports(f Feature) bool {
	return Capabilities[d][f]
}
