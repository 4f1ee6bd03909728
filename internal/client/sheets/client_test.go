package sheets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"directory-agent/internal/model"
)

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for col, want := range tests {
		assert.Equal(t, want, ColumnLetter(col), "col %d", col)
	}
}

func TestCellRange(t *testing.T) {
	tests := []struct {
		tableRange string
		row, col   int
		want       string
	}{
		{"Usuarios!A:Z", 1, 1, "Usuarios!B2"},
		{"'Base de Usuários'!A1:F", 9, 2, "'Base de Usuários'!C10"},
		{"A:Z", 0, 0, "A1"},
		{"Usuarios!B:Z", 1, 0, "Usuarios!B2"},
		{"Usuarios!A3:Z", 1, 0, "Usuarios!A4"},
		{"Usuarios!C5:H", 2, 1, "Usuarios!D7"},
		{"Usuarios!$B$2:$Z", 0, 0, "Usuarios!B2"},
		{"Usuarios!AA10:AZ", 0, 1, "Usuarios!AB10"},
		{"Usuarios!3:20", 1, 2, "Usuarios!C4"},
		{"Usuarios", 1, 1, "Usuarios!B2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CellRange(tt.tableRange, tt.row, tt.col), tt.tableRange)
	}
}

func TestUnconfiguredTable(t *testing.T) {
	c := &Client{cfg: Config{Range: "A:Z"}}
	_, err := c.ReadAll(context.Background())
	assert.ErrorIs(t, err, model.ErrIntegration)
	assert.ErrorIs(t, err, model.ErrTableNotConfigured)

	err = c.WriteCell(context.Background(), 1, 1, "x")
	assert.ErrorIs(t, err, model.ErrTableNotConfigured)
}
