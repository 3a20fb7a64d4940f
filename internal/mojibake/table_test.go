package mojibake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorruptForm(t *testing.T) {
	// The derived forms must equal the literal mojibake seen in the wild.
	assert.Equal(t, "┬▓", CorruptForm("²"))
	assert.Equal(t, "m┬▓", CorruptForm("m²"))
	assert.Equal(t, "mm┬▓", CorruptForm("mm²"))
	assert.Equal(t, "cm┬▓", CorruptForm("cm²"))
	assert.Equal(t, "in┬▓", CorruptForm("in²"))
	assert.Equal(t, "ft┬▓", CorruptForm("ft²"))

	// ASCII passes through CP437 unchanged.
	assert.Equal(t, "Area: 12.5", CorruptForm("Area: 12.5"))
}

func TestDefaultTable(t *testing.T) {
	table := Default()
	entries := table.Entries()
	require.Len(t, entries, 5)

	// Longest corrupted pattern first; the one-letter unit comes last.
	for i := 0; i < len(entries)-1; i++ {
		assert.GreaterOrEqual(t, len(entries[i].Corrupt), len(entries[i+1].Corrupt))
	}
	assert.Equal(t, "m", entries[len(entries)-1].Unit)

	byUnit := make(map[string]Entry)
	for _, e := range entries {
		byUnit[e.Unit] = e
	}
	assert.Equal(t, "mm²", byUnit["mm"].Fixed)
	assert.Equal(t, "mm┬▓", byUnit["mm"].Corrupt)
	assert.Equal(t, "m²", byUnit["m"].Fixed)
	assert.Equal(t, "m┬▓", byUnit["m"].Corrupt)
}

func TestRepair(t *testing.T) {
	table := Default()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"no patterns", "Area: 12.5 m2, nothing corrupted here.", "Area: 12.5 m2, nothing corrupted here."},
		{"single m", "12 m┬▓", "12 m²"},
		{"single mm", "12 mm┬▓", "12 mm²"},
		{"single cm", "12 cm┬▓", "12 cm²"},
		{"single in", "12 in┬▓", "12 in²"},
		{"single ft", "12 ft┬▓", "12 ft²"},
		{"compound not half eaten", "mm┬▓", "mm²"},
		{"triple m", "mmm┬▓", "mmm²"},
		{"embedded unit", "km┬▓", "km²"},
		{"adjacent patterns", "m┬▓m┬▓", "m²m²"},
		{"orphan mojibake kept", "Q┬▓ stays", "Q┬▓ stays"},
		{"bare mojibake kept", "┬▓", "┬▓"},
		{
			"all five once",
			"m┬▓ mm┬▓ cm┬▓ in┬▓ ft┬▓",
			"m² mm² cm² in² ft²",
		},
		{
			"report line",
			"Area: 12.5 m┬▓, volume uses cm┬▓ too.",
			"Area: 12.5 m², volume uses cm² too.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := table.Repair(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepair_NoResidualMojibake(t *testing.T) {
	table := Default()
	in := "Sheet: 2440x1220 mm┬▓ waste 0.35 m┬▓ (panel 3.2 ft┬▓, edge 14 cm┬▓, hole 2 in┬▓)"

	got, stats := table.Repair(in)
	assert.NotContains(t, got, "┬▓")
	assert.Equal(t, 5, stats.Total)
}

func TestRepair_Stats(t *testing.T) {
	table := Default()
	in := strings.Repeat("cut 1.2 m┬▓ of 3 mm┬▓ stock\n", 3)

	_, stats := table.Repair(in)
	assert.Equal(t, 3, stats.PerUnit["m"])
	assert.Equal(t, 3, stats.PerUnit["mm"])
	assert.Equal(t, 6, stats.Total)
	assert.Zero(t, stats.PerUnit["cm"])
}

func TestRepair_Idempotent(t *testing.T) {
	table := Default()
	in := "Area: 12.5 m┬▓, volume uses cm┬▓ too."

	once, stats := table.Repair(in)
	require.Equal(t, 2, stats.Total)

	twice, stats := table.Repair(once)
	assert.Equal(t, once, twice)
	assert.Zero(t, stats.Total)
}
