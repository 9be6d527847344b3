package feeds

import "testing"

func TestToBaseUnits(t *testing.T) {
	cases := []struct {
		quoted string
		want   int64
	}{
		{"1.25", 1_250_000_000},
		{"0.5", 500_000_000},
		{"2", 2_000_000_000},
		{"0", 0},
		{"0.000000001", 1},
		// Sub-unit precision truncates
		{"0.0000000019", 1},
	}

	for _, tc := range cases {
		got, err := ToBaseUnits(tc.quoted)
		if err != nil {
			t.Errorf("ToBaseUnits(%q) failed: %v", tc.quoted, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ToBaseUnits(%q) = %d, want %d", tc.quoted, got, tc.want)
		}
	}
}

func TestToBaseUnitsRejects(t *testing.T) {
	for _, quoted := range []string{"", "abc", "-1.5"} {
		if _, err := ToBaseUnits(quoted); err == nil {
			t.Errorf("ToBaseUnits(%q) should fail", quoted)
		}
	}
}
