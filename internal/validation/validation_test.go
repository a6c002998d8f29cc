package validation

import "testing"

func TestCheckerCollectsEveryViolation(t *testing.T) {
	var c Checker
	c.Check(Length("", 1, 200), "title", "Title is required")
	c.Check(FloatRange(11, 0, 10), "ratingAverage", "Rating must be between 0 and 10")
	c.ObjectIDs("platforms", []string{"64b7f0c2a1b2c3d4e5f60718", "nope", "xyz"}, "platform")

	errs := c.Errors()
	if len(errs) != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", len(errs), errs)
	}
	if errs[0].Field != "title" || errs[1].Field != "ratingAverage" {
		t.Fatalf("violations out of order: %v", errs)
	}
	if errs[2].Field != "platforms[1]" || errs[3].Field != "platforms[2]" {
		t.Fatalf("unexpected reference fields: %v", errs)
	}
}

func TestCheckerEmpty(t *testing.T) {
	var c Checker
	c.Check(true, "x", "never")
	if c.Errors() != nil {
		t.Fatalf("expected nil errors, got %v", c.Errors())
	}
}

func TestLength(t *testing.T) {
	if !Length("  ab  ", 2, 2) {
		t.Fatal("expected trimmed length 2 to pass")
	}
	if Length("   ", 1, 10) {
		t.Fatal("expected blank string to fail min length")
	}
	if !Length("ééé", 1, 3) {
		t.Fatal("expected rune counting")
	}
}

func TestIsObjectID(t *testing.T) {
	cases := map[string]bool{
		"64b7f0c2a1b2c3d4e5f60718": true,
		"64B7F0C2A1B2C3D4E5F60718": true,
		"64b7f0c2a1b2c3d4e5f6071":  false,
		"64b7f0c2a1b2c3d4e5f6071g": false,
		"":                         false,
	}
	for in, want := range cases {
		if got := IsObjectID(in); got != want {
			t.Errorf("IsObjectID(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2023-05-12", "2023-05-12T10:00:00Z", "2023-05-12T10:00:00"} {
		if _, ok := ParseDate(in); !ok {
			t.Errorf("expected %q to parse", in)
		}
	}
	if _, ok := ParseDate("12/05/2023"); ok {
		t.Error("expected non ISO date to fail")
	}
}

func TestIsEmailAndURL(t *testing.T) {
	if !IsEmail("player@example.com") || IsEmail("player@") {
		t.Fatal("email check mismatch")
	}
	if !IsURL("https://cdn.example.com/a.png") || IsURL("not a url") {
		t.Fatal("url check mismatch")
	}
}

func TestOneOf(t *testing.T) {
	if !OneOf("pc", "console", "pc") || OneOf("toaster", "console", "pc") {
		t.Fatal("OneOf mismatch")
	}
}
