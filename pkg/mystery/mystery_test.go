package mystery

import (
	"testing"

	"github.com/google/uuid"
)

func TestResolve_HardDifficultyExhaustsAtTwo(t *testing.T) {
	a := NewAnswer(uuid.New(), "the gardener", "shears", "inheritance")
	const maxAttempts = 2 // hard

	out := a.Resolve(false, maxAttempts)
	if out.State != CaseOpen || out.AttemptsRemaining != 1 {
		t.Fatalf("first wrong arrest: %+v", out)
	}

	out = a.Resolve(false, maxAttempts)
	if out.State != CaseFailed || out.AttemptsRemaining != 0 {
		t.Fatalf("second wrong arrest: %+v", out)
	}
	if a.AttemptsUsed != 2 {
		t.Errorf("attempts used = %d, want 2", a.AttemptsUsed)
	}
}

func TestResolve_CorrectDoesNotConsumeAttempt(t *testing.T) {
	a := NewAnswer(uuid.New(), "the butler", "candlestick", "blackmail")

	out := a.Resolve(true, 3)
	if out.State != CaseSolved || !out.Correct {
		t.Fatalf("correct arrest: %+v", out)
	}
	if a.AttemptsUsed != 0 {
		t.Errorf("attempts used = %d, want 0", a.AttemptsUsed)
	}
}

func TestResolve_SolveOnLastAttempt(t *testing.T) {
	a := NewAnswer(uuid.New(), "the heir", "poison", "debt")

	a.Resolve(false, 3)
	a.Resolve(false, 3)
	out := a.Resolve(true, 3)
	if out.State != CaseSolved {
		t.Fatalf("expected solved on last attempt, got %+v", out)
	}
}

func TestMatches_Lenient(t *testing.T) {
	a := NewAnswer(uuid.New(), "James, the butler", "a candlestick", "blackmail gone wrong")

	tests := []struct {
		name  string
		guess Guess
		want  bool
	}{
		{
			name:  "substring both directions",
			guess: Guess{Criminal: "the butler", Weapon: "candlestick", Motive: "blackmail gone wrong"},
			want:  true,
		},
		{
			name:  "case and whitespace insensitive",
			guess: Guess{Criminal: "JAMES,  THE BUTLER", Weapon: "A  Candlestick", Motive: "Blackmail Gone Wrong"},
			want:  true,
		},
		{
			name:  "wrong criminal",
			guess: Guess{Criminal: "the maid", Weapon: "candlestick", Motive: "blackmail gone wrong"},
			want:  false,
		},
		{
			name:  "empty component never matches",
			guess: Guess{Criminal: "", Weapon: "candlestick", Motive: "blackmail gone wrong"},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Matches(tt.guess); got != tt.want {
				t.Errorf("Matches(%+v) = %v, want %v", tt.guess, got, tt.want)
			}
		})
	}
}
