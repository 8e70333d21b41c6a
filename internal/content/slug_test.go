package content

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"Café au lait", "cafe-au-lait"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"What's new in 2024?!", "what-s-new-in-2024"},
		{"über-längen", "uber-langen"},
		{"multiple---hyphens___underscores", "multiple-hyphens-underscores"},
		{"UPPER lower", "upper-lower"},
		{"...", ""},
		{"", ""},
	}

	for _, test := range tests {
		if got := Slugify(test.in); got != test.want {
			t.Errorf("Slugify(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}
