package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_EmailsDistinctWithinSameMillisecond(t *testing.T) {
	gen := NewGenerator([]string{"example.test"})

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := gen.Generate()
		assert.False(t, seen[id.Email], "duplicate email generated: %s", id.Email)
		seen[id.Email] = true
	}
}

func TestGenerate_EmailUsesConfiguredDomains(t *testing.T) {
	domains := []string{"a.test", "b.test"}
	gen := NewGenerator(domains)

	for i := 0; i < 50; i++ {
		id := gen.Generate()
		at := strings.LastIndex(id.Email, "@")
		require.Greater(t, at, 0, "email missing @: %s", id.Email)
		assert.Contains(t, domains, id.Email[at+1:])
	}
}

func TestGenerate_FieldLengths(t *testing.T) {
	gen := NewGenerator([]string{"example.test"})

	id := gen.Generate()
	assert.Len(t, id.Password, passwordLen)
	assert.Len(t, id.FirstName, nameLen)
	assert.Len(t, id.LastName, nameLen)

	local := id.Email[:strings.Index(id.Email, "@")]
	// random fragment + millisecond timestamp (13 digits this century)
	assert.GreaterOrEqual(t, len(local), localPartRandomLen+13)
}

func TestGenerate_FieldsAreLowercaseBase36(t *testing.T) {
	gen := NewGenerator([]string{"example.test"})

	id := gen.Generate()
	for _, s := range []string{id.Password, id.FirstName, id.LastName} {
		for _, r := range s {
			assert.Contains(t, base36, string(r))
		}
	}
}
