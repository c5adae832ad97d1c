package auth

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid address", "student@example-school.org", false},
		{"valid with plus tag", "parent+alerts@example.com", false},
		{"missing domain", "student@", true},
		{"missing at sign", "student.example.com", true},
		{"missing tld", "student@example", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestPasswordValidation(t *testing.T) {
	InitSecurity()

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Str0ng!pass", false},
		{"too short", "S7!a", true},
		{"no uppercase", "weak1pass!", true},
		{"no lowercase", "WEAK1PASS!", true},
		{"no digit", "WeakPass!!", true},
		{"no special character", "WeakPass123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate.Var(tt.password, "password")
			if (err != nil) != tt.wantErr {
				t.Errorf("password %q error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}
