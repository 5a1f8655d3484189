package otp

import "testing"

func TestNumericGenerator(t *testing.T) {
	gen := NewNumeric()

	t.Run("ExactLength", func(t *testing.T) {
		for _, length := range []int{1, 4, 6, 8, 12} {
			code, err := gen.Generate(length)
			if err != nil {
				t.Fatalf("generate length %d: %v", length, err)
			}
			if len(code) != length {
				t.Fatalf("expected length %d, got %q", length, code)
			}
		}
	})

	t.Run("DigitsOnly", func(t *testing.T) {
		code, err := gen.Generate(DefaultLength)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		for i := 0; i < len(code); i++ {
			if code[i] < '0' || code[i] > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	})

	t.Run("InvalidLength", func(t *testing.T) {
		for _, length := range []int{0, -1} {
			if _, err := gen.Generate(length); err != ErrInvalidLength {
				t.Fatalf("expected ErrInvalidLength for %d, got %v", length, err)
			}
		}
	})

	t.Run("NotConstant", func(t *testing.T) {
		// 20 draws of 8 digits colliding entirely would mean a broken source.
		seen := make(map[string]struct{})
		for i := 0; i < 20; i++ {
			code, err := gen.Generate(8)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			seen[code] = struct{}{}
		}
		if len(seen) < 2 {
			t.Fatalf("expected varied codes, got %d unique of 20", len(seen))
		}
	})
}
