package errors

import (
	"fmt"
	"testing"
)

func TestEngineError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *EngineError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
		{
			name:     "policy error",
			err:      RainDelayActive(),
			expected: "policy (info): Rain delay active",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestEngineError_WithContext(t *testing.T) {
	err := ZoneNotFound(3).WithContext("operation", "start")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["zone_id"] != 3 {
		t.Errorf("Context[zone_id] = %v, want 3", err.Context["zone_id"])
	}

	if err.Context["operation"] != "start" {
		t.Errorf("Context[operation] = %v, want start", err.Context["operation"])
	}
}

func TestIsCategory(t *testing.T) {
	policyErr := RainDelayActive()
	hardwareErr := RelayActivateError(1, fmt.Errorf("pin busy"))
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"policy error matches policy", policyErr, CategoryPolicy, true},
		{"policy error does not match hardware", policyErr, CategoryHardware, false},
		{"hardware error matches hardware", hardwareErr, CategoryHardware, true},
		{"standard error matches nothing", standardErr, CategoryPolicy, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsCategory(test.err, test.category); got != test.expected {
				t.Errorf("IsCategory() = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(StateSaveError(fmt.Errorf("disk full"))) {
		t.Error("state save errors should be retryable")
	}
	if IsRetryable(ZoneNotFound(1)) {
		t.Error("not-found errors should not be retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("plain errors should not be retryable")
	}
}
