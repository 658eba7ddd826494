package cmd

import "testing"

func TestValidateQualityOutput(t *testing.T) {
	for _, format := range []string{"table", "json"} {
		if err := validateQualityOutput(format); err != nil {
			t.Errorf("Expected %q to be accepted: %v", format, err)
		}
	}

	for _, format := range []string{"yaml", "csv", "", "JSON"} {
		if err := validateQualityOutput(format); err == nil {
			t.Errorf("Expected %q to be rejected", format)
		}
	}
}
