package actor

import "testing"

func TestRoll_Notation(t *testing.T) {
	// Die function that always rolls the maximum face.
	maxDie := func(n int) int { return n - 1 }

	tests := []struct {
		notation string
		want     int
		wantErr  bool
	}{
		{notation: "2d6", want: 12},
		{notation: "d8", want: 8},
		{notation: "1d4+2", want: 6},
		{notation: "3d4-2", want: 10},
		{notation: "2D6+1", want: 13},
		{notation: " 1d6 ", want: 6},
		{notation: "1d6-20", want: 0}, // never negative
		{notation: "banana", wantErr: true},
		{notation: "1d", wantErr: true},
		{notation: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.notation, func(t *testing.T) {
			got, err := roll(tt.notation, maxDie)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("roll(%q) = %d, want error", tt.notation, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("roll(%q): %v", tt.notation, err)
			}
			if got != tt.want {
				t.Errorf("roll(%q) = %d, want %d", tt.notation, got, tt.want)
			}
		})
	}
}

func TestRoll_WithinBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		got, err := Roll("2d6+1")
		if err != nil {
			t.Fatalf("Roll: %v", err)
		}
		if got < 3 || got > 13 {
			t.Fatalf("Roll(2d6+1) = %d, out of [3,13]", got)
		}
	}
}
