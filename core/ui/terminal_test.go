package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Success("%d rows priced", 3)
	w.Warning("Optional columns not provided")
	w.Error("Row %d: weight must be greater than 0", 2)

	assert.Equal(t, "✓ 3 rows priced\n"+
		"Warning: Optional columns not provided\n"+
		"Error: Row 2: weight must be greater than 0\n", buf.String())
	assert.NotContains(t, buf.String(), "\033[")
}

func TestWriterQuiet(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	w.SetQuiet(true)
	w.Info("hidden")
	assert.Empty(t, buf.String())

	w.SetQuiet(false)
	w.Info("shown")
	assert.Equal(t, Dim+"shown"+Reset+"\n", buf.String())
}

func TestTableAlignment(t *testing.T) {
	var buf bytes.Buffer
	table := NewWriter(&buf, true).NewTable("Row", "Origin", "Should Cost").AlignRight(0, 2)
	table.AddRow("2", "Dallas, TX", "$2540.79")
	table.AddRow("10", "Austin", "$500.00", "ignored")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Row │ Origin     │ Should Cost",
		"────┼────────────┼────────────",
		"  2 │ Dallas, TX │    $2540.79",
		" 10 │ Austin     │     $500.00",
	}, lines)
}

func TestProgressBarConcurrentIncrements(t *testing.T) {
	var buf bytes.Buffer
	bar := NewWriter(&buf, true).NewProgressBar(50, "Pricing")

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bar.Increment()
		}()
	}
	wg.Wait()
	bar.Done()

	assert.Equal(t, 50, bar.Current())
	assert.Contains(t, buf.String(), "100% (50/50)")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Dallas, TX", Truncate("Dallas, TX", 25))
	assert.Equal(t, "San Franc...", Truncate("San Francisco, CA 94103", 12))
	assert.Equal(t, "Sa", Truncate("San Francisco", 2))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(0))
	assert.Equal(t, "42s", formatDuration(42e9))
	assert.Equal(t, "2m5s", formatDuration(125e9))
}
