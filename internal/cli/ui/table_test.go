package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	t.Run("pads columns to the widest cell", func(t *testing.T) {
		var buf bytes.Buffer
		table := NewTable(&buf, []string{"TYPE", "PROVIDER"}, &TableOptions{NoColor: true})
		table.AddRow("key-value", "redis")
		table.AddRow("graph", "neo4j")
		table.Render()

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		assert.Len(t, lines, 4)
		assert.Equal(t, "TYPE       PROVIDER", lines[0])
		assert.Equal(t, "key-value  redis", strings.TrimRight(lines[2], " "))
		assert.Equal(t, "graph      neo4j", strings.TrimRight(lines[3], " "))
	})

	t.Run("renders nothing without headers", func(t *testing.T) {
		var buf bytes.Buffer
		table := NewTable(&buf, nil, nil)
		table.AddRow("orphan")
		table.Render()

		assert.Empty(t, buf.String())
	})

	t.Run("drops cells beyond the header count", func(t *testing.T) {
		var buf bytes.Buffer
		table := NewTable(&buf, []string{"ONLY"}, &TableOptions{NoColor: true})
		table.AddRow("kept", "dropped")
		table.Render()

		assert.NotContains(t, buf.String(), "dropped")
	})
}
