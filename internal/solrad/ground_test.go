package solrad

import (
	"strings"
	"testing"
	"time"
)

const groundSample = `Datetime (UTC),GHI,DHI,DNI,flag_ghi,flag_dhi,flag_dni,flag_comp1
2024-01-01 06:00:00,120.5,45.2,300.1,0,0,0,0
2024-01-01 06:10:00,130.0,48.0,310.0,1,0,0,0
2024-01-01 06:20:00,,50.0,315.0,0,0,0,0
`

// TestReadGround verifies flag summation and absent component values.
func TestReadGround(t *testing.T) {
	rows, err := ReadGround(strings.NewReader(groundSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	want := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	if !rows[0].Time.Equal(want) {
		t.Errorf("expected %v, got %v", want, rows[0].Time)
	}
	if !rows[0].QCValid() {
		t.Errorf("expected clean row to pass QC, flags=%d", rows[0].FlagSum)
	}
	if rows[0].GHI.V != 120.5 {
		t.Errorf("unexpected GHI %v", rows[0].GHI.V)
	}

	if rows[1].QCValid() {
		t.Error("expected flagged row to fail QC")
	}

	if rows[2].GHI.Valid {
		t.Errorf("expected absent GHI on row with empty cell, got %+v", rows[2].GHI)
	}
	if !rows[2].QCValid() {
		t.Error("row with missing value but clean flags still passes QC")
	}
}

// TestReadGroundFlagSubset verifies that files carrying only some of the
// known flag columns are accepted.
func TestReadGroundFlagSubset(t *testing.T) {
	input := "Datetime (UTC),GHI,DHI,DNI,flag_ghi\n" +
		"2024-01-01 06:00:00,100,40,250,0\n" +
		"2024-01-01 06:10:00,110,42,260,2\n"

	rows, err := ReadGround(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rows[0].QCValid() || rows[1].QCValid() {
		t.Errorf("flag filtering wrong: %+v", rows)
	}
}

// TestReadGroundMissingTimeColumn verifies the error path for files
// without the expected timestamp column.
func TestReadGroundMissingTimeColumn(t *testing.T) {
	if _, err := ReadGround(strings.NewReader("time,GHI\n2024-01-01,1\n")); err == nil {
		t.Fatal("expected error for missing Datetime (UTC) column")
	}
}
