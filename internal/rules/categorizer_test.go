package rules

import "testing"

func TestCategorizer_Categorize(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		note     string
		expected string
	}{
		{"exact keyword", "netflix", "Subscriptions"},
		{"keyword inside note", "Monthly Netflix renewal", "Subscriptions"},
		{"case insensitive", "LUNCH with team", "Food"},
		{"first matching rule wins", "grocery run after dinner", "Groceries"},
		{"no match", "mystery charge", ""},
		{"empty note", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Categorize(tt.note); got != tt.expected {
				t.Errorf("Categorize(%q) = %q, want %q", tt.note, got, tt.expected)
			}
		})
	}
}

func TestCategorizer_CustomRules(t *testing.T) {
	c := New([]Rule{
		{Keyword: "Steam", Category: "Gaming"},
		{Keyword: "", Category: "Dropped"},
		{Keyword: "dropped", Category: ""},
	})

	if got := c.Categorize("steam summer sale"); got != "Gaming" {
		t.Errorf("Categorize = %q, want Gaming", got)
	}
	if got := c.Categorize("dropped rule"); got != "" {
		t.Errorf("incomplete rules should be ignored, got %q", got)
	}
}
