package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"test@example.com", "user.name+1@domain.co", "a@b.cd"}
	invalid := []string{"test@", "@example.com", "test@.com", "test@com", "test@domain", " ", ""}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = false, want true", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = true, want false", email)
		}
	}
}

func TestIsValidCurrencyCode(t *testing.T) {
	valid := []string{"USD", "IDR", "EUR"}
	invalid := []string{"usd", "US", "USDX", "U$D", "", " USD"}
	for _, code := range valid {
		if !IsValidCurrencyCode(code) {
			t.Errorf("IsValidCurrencyCode(%q) = false, want true", code)
		}
	}
	for _, code := range invalid {
		if IsValidCurrencyCode(code) {
			t.Errorf("IsValidCurrencyCode(%q) = true, want false", code)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"admin", "auditor"}
	if !IsInSlice("admin", slice) {
		t.Error("IsInSlice(admin) = false, want true")
	}
	if IsInSlice("guest", slice) {
		t.Error("IsInSlice(guest) = true, want false")
	}
	if IsInSlice("admin", nil) {
		t.Error("IsInSlice on nil slice = true, want false")
	}
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "email", Message: "is required"},
		{Field: "currency", Message: "must be a three-letter ISO 4217 code"},
	}

	if got := errs.Error(); got != "email: is required; currency: must be a three-letter ISO 4217 code" {
		t.Errorf("unexpected Error() output: %q", got)
	}

	m := errs.ToMap()
	if m["email"] != "is required" || m["currency"] != "must be a three-letter ISO 4217 code" {
		t.Errorf("unexpected ToMap() output: %v", m)
	}
}
