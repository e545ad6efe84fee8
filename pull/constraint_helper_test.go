package pull

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

// testConstraintParsing is a common test helper for constraint parsing
func testConstraintParsing(t *testing.T, parse func(string) string, unknownValue string) {
	t.Helper()

	t.Run("ParsePrimaryKeyConstraint", func(t *testing.T) {
		assert.Equal(t, "PRIMARY_KEY", parse("PRIMARY KEY"))
	})

	t.Run("ParseForeignKeyConstraint", func(t *testing.T) {
		assert.Equal(t, "FOREIGN_KEY", parse("FOREIGN KEY"))
	})

	t.Run("ParseUniqueConstraint", func(t *testing.T) {
		assert.Equal(t, "UNIQUE", parse("unique"))
	})

	t.Run("ParseCheckConstraint", func(t *testing.T) {
		assert.Equal(t, "CHECK", parse("CHECK"))
	})

	t.Run("ParseUnknownConstraint", func(t *testing.T) {
		assert.Equal(t, unknownValue, parse(unknownValue))
	})
}
