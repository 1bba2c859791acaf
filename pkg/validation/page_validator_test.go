package validation

import (
	"testing"
)

func goodPage() PageMetrics {
	skew := 0.5
	return PageMetrics{
		Width:        1240,
		Height:       1754,
		LaplacianVar: 850,
		Brightness:   190,
		Contrast:     45,
		SkewAngle:    &skew,
	}
}

func issueTypes(issues []QualityIssue) []string {
	var out []string
	for _, i := range issues {
		out = append(out, i.Type)
	}
	return out
}

func TestNewPageValidator(t *testing.T) {
	validator := NewPageValidator()
	if validator == nil {
		t.Fatal("Expected non-nil page validator")
	}
	if validator.Thresholds() != DefaultPageThresholds() {
		t.Error("Expected default thresholds")
	}

	custom := NewPageValidatorWithThresholds(PageThresholds{MinLaplacianVariance: 500})
	if custom.Thresholds().MinLaplacianVariance != 500 {
		t.Errorf("Expected custom MinLaplacianVariance to be 500, got %f", custom.Thresholds().MinLaplacianVariance)
	}
}

func TestValidate_GoodPage(t *testing.T) {
	validator := NewPageValidator()
	issues := validator.Validate(goodPage())
	if len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issueTypes(issues))
	}
	if validator.HasCriticalIssues(issues) {
		t.Error("Expected no critical issues")
	}
}

func TestValidate_Issues(t *testing.T) {
	validator := NewPageValidator()

	tests := []struct {
		name     string
		mutate   func(*PageMetrics)
		want     string
		critical bool
	}{
		{"blurry", func(m *PageMetrics) { m.LaplacianVar = 20 }, "blurriness", true},
		{"dark", func(m *PageMetrics) { m.Brightness = 40 }, "too_dark", true},
		{"bright", func(m *PageMetrics) { m.Brightness = 253 }, "too_bright", false},
		{"blank", func(m *PageMetrics) { m.Contrast = 2 }, "low_contrast", false},
		{"skewed", func(m *PageMetrics) { s := -9.0; m.SkewAngle = &s }, "skew", false},
		{"small", func(m *PageMetrics) { m.Width, m.Height = 320, 480 }, "low_resolution", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := goodPage()
			tt.mutate(&m)
			issues := validator.Validate(m)
			if len(issues) != 1 || issues[0].Type != tt.want {
				t.Fatalf("Expected only %s, got %v", tt.want, issueTypes(issues))
			}
			if validator.HasCriticalIssues(issues) != tt.critical {
				t.Errorf("Expected critical=%v", tt.critical)
			}
		})
	}
}

func TestValidate_UnknownSkewIgnored(t *testing.T) {
	validator := NewPageValidator()
	m := goodPage()
	m.SkewAngle = nil
	if issues := validator.Validate(m); len(issues) != 0 {
		t.Errorf("Expected no issues, got %v", issueTypes(issues))
	}
}

func TestConvertIssuesToMessages(t *testing.T) {
	validator := NewPageValidator()
	m := goodPage()
	m.LaplacianVar = 0
	m.Brightness = 10

	messages := validator.ConvertIssuesToMessages(validator.Validate(m))
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0] != "Page is blurry. Hold the camera steady and scan again." {
		t.Errorf("Unexpected first message %q", messages[0])
	}
}
