package dispatch

import "testing"

func TestPackNameDeterministic(t *testing.T) {
	a, err := PackName("transfer")
	if err != nil {
		t.Fatal(err)
	}
	b, err := PackName("transfer")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("PackName not deterministic: %d != %d", a, b)
	}
}

func TestPackNameDistinguishesNames(t *testing.T) {
	a, err := PackName("issue")
	if err != nil {
		t.Fatal(err)
	}
	b, err := PackName("retire")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("different names packed to the same value")
	}
}

func TestPackNameToleratesInvalidCharacter(t *testing.T) {
	v, err := PackName("Transfer")
	if err != nil {
		t.Fatalf("expected an out-of-alphabet character to pack tolerantly, got error: %v", err)
	}
	if v == 0 {
		t.Errorf("expected a nonzero packed value even with an invalid leading character")
	}
}

func TestPackNameRejectsTooLong(t *testing.T) {
	if _, err := PackName("toolongofanamehere"); err == nil {
		t.Error("expected an error for a name longer than 13 characters")
	}
}

func TestPackNameEmpty(t *testing.T) {
	v, err := PackName("")
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("PackName(\"\") = %d, want 0", v)
	}
}
