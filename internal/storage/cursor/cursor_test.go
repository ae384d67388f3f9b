package cursor

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	original := New(1755600000000, "sol-42", `status = "open"`, "newest")
	token, err := Encode(original)
	if err != nil {
		t.Fatalf("encode cursor: %v", err)
	}

	decoded, err := Decode(token)
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	if decoded != original {
		t.Fatalf("expected %+v, got %+v", original, decoded)
	}
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	t.Parallel()

	if _, err := Decode(""); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := Decode("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := Decode("eyJrZXkiOjB9"); err == nil { // {"key":0} without id
		t.Fatal("expected error for cursor missing id")
	}
}

func TestFilterAndOrderHashValidation(t *testing.T) {
	t.Parallel()

	c := New(10, "sol-1", `status = "open"`, "deadline")

	if err := ValidateFilterHash(c, `status = "open"`); err != nil {
		t.Fatalf("unchanged filter should validate: %v", err)
	}
	if err := ValidateFilterHash(c, `status = "closed"`); err == nil {
		t.Fatal("expected validation error after filter change")
	}
	if err := ValidateOrderHash(c, "deadline"); err != nil {
		t.Fatalf("unchanged order should validate: %v", err)
	}
	if err := ValidateOrderHash(c, "newest"); err == nil {
		t.Fatal("expected validation error after order change")
	}
}

func TestHashFilterStability(t *testing.T) {
	t.Parallel()

	if HashFilter("") != "" {
		t.Fatal("empty filter should hash to empty string")
	}
	a := HashFilter("status = \"open\"")
	b := HashFilter("status = \"open\"")
	if a != b {
		t.Fatal("expected deterministic hashes")
	}
	// 8 bytes hex-encoded
	if len(a) != 16 {
		t.Fatalf("unexpected hash length: %d", len(a))
	}
}
