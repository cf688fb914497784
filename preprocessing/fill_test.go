package preprocessing

import "testing"

func TestForwardFill(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		present   []bool
		want      []float64
		wantValid []bool
	}{
		{
			name:      "no gaps",
			values:    []float64{1, 2, 3},
			present:   []bool{true, true, true},
			want:      []float64{1, 2, 3},
			wantValid: []bool{true, true, true},
		},
		{
			name:      "gap filled from previous",
			values:    []float64{1, 0, 0, 4},
			present:   []bool{true, false, false, true},
			want:      []float64{1, 1, 1, 4},
			wantValid: []bool{true, true, true, true},
		},
		{
			name:      "leading gap stays missing",
			values:    []float64{0, 0, 3, 0},
			present:   []bool{false, false, true, false},
			want:      []float64{0, 0, 3, 3},
			wantValid: []bool{false, false, true, true},
		},
		{
			name:      "all missing",
			values:    []float64{0, 0},
			present:   []bool{false, false},
			want:      []float64{0, 0},
			wantValid: []bool{false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, valid := ForwardFill(tt.values, tt.present)
			for i := range tt.want {
				if got[i] != tt.want[i] || valid[i] != tt.wantValid[i] {
					t.Errorf("[%d] = (%v, %v), want (%v, %v)", i, got[i], valid[i], tt.want[i], tt.wantValid[i])
				}
			}
		})
	}
}

func TestBackFill(t *testing.T) {
	got, valid := BackFill([]string{"", "", "Hard", ""}, []bool{false, false, true, false})
	want := []string{"Hard", "Hard", "Hard", ""}
	wantValid := []bool{true, true, true, false}
	for i := range want {
		if got[i] != want[i] || valid[i] != wantValid[i] {
			t.Errorf("[%d] = (%q, %v), want (%q, %v)", i, got[i], valid[i], want[i], wantValid[i])
		}
	}
}
