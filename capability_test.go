package pseudo

import (
	"errors"
	"testing"
)

func TestIsKnownFunction(t *testing.T) {
	tests := []struct {
		name FunctionName
		want bool
	}{
		{FuncDaead, true},
		{FuncFF31, true},
		{FuncMapSID, true},
		{FuncRedact, true},
		{"DAEAD", false},
		{"tink-daead", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			if got := IsKnownFunction(tt.name); got != tt.want {
				t.Errorf("IsKnownFunction(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIsValidStrategy(t *testing.T) {
	tests := []struct {
		s    UnknownCharacterStrategy
		want bool
	}{
		{StrategyFail, true},
		{StrategySkip, true},
		{StrategyDelete, true},
		{StrategyRedact, true},
		{"SKIP", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.s), func(t *testing.T) {
			if got := IsValidStrategy(tt.s); got != tt.want {
				t.Errorf("IsValidStrategy(%q) = %v, want %v", tt.s, got, tt.want)
			}
		})
	}
}

func TestCheckFunction(t *testing.T) {
	valid := []string{
		"daead()",
		"daead(keyId=" + KeySSBCommon1 + ")",
		"ff31(keyId=" + KeyPapisCommon1 + ",strategy=skip)",
		"map-sid-ff31(keyId=" + KeyPapisCommon1 + ")",
		"redact(placeholder=#)",
	}
	for _, expr := range valid {
		if _, err := CheckFunction(expr); err != nil {
			t.Errorf("CheckFunction(%q) error: %v", expr, err)
		}
	}

	invalid := []string{
		"encrypt()",
		"ff31(strategy=ignore)",
		"daead",
	}
	for _, expr := range invalid {
		if _, err := CheckFunction(expr); !errors.Is(err, ErrInvalidFunction) {
			t.Errorf("CheckFunction(%q) error = %v, want ErrInvalidFunction", expr, err)
		}
	}
}
