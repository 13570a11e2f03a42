package environment

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		allowed []Environment
		want    Environment
		wantErr bool
	}{
		{"upper", "PROD", Standard, Prod, false},
		{"lower with spaces", "  dev ", Standard, Dev, false},
		{"local not standard", "local", Standard, None, true},
		{"local allowed", "local", WithLocal, Local, false},
		{"empty", "", Standard, None, true},
		{"any when unrestricted", "staging", nil, Environment("STAGING"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, tt.allowed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPolicy_Default(t *testing.T) {
	p := NewPolicy()
	if !p.IsProduction(Prod) {
		t.Error("PROD should be production by default")
	}
	if p.IsProduction(UAT) {
		t.Error("UAT should not be production by default")
	}

	var zero Policy
	if !zero.IsProduction(Prod) {
		t.Error("zero policy should still protect PROD")
	}
}

func TestPolicy_Configured(t *testing.T) {
	p := NewPolicy("prod", " uat ", "PROD")
	if !p.IsProduction(UAT) || !p.IsProduction(Prod) {
		t.Error("configured environments should be production")
	}
	if p.IsProduction(Dev) {
		t.Error("DEV should not be production")
	}
}

func TestLower(t *testing.T) {
	if got := QA.Lower(); got != "qa" {
		t.Errorf("Lower() = %q, want qa", got)
	}
}
