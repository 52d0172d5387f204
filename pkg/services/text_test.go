package services

import "testing"

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"nested", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entities", "<p>Fish &amp; chips</p>", "Fish & chips"},
		{"script dropped", "<p>a</p><script>var x = 1;</script><style>p{}</style><p>b</p>", "ab"},
		{"unclosed", "<p>broken <em>tail", "broken tail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTags(tt.in); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name    string
		content string
		n       int
		want    string
	}{
		{"short keeps suffix", "<p>Hi</p>", 200, "Hi..."},
		{"cut on runes", "<p>héllo wörld</p>", 5, "héllo..."},
		{"exact length", "abc", 3, "abc..."},
		{"empty", "", 10, "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.content, tt.n); got != tt.want {
				t.Errorf("Excerpt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContainsFold(t *testing.T) {
	needle := Fold("WELCOME")
	if !ContainsFold(needle, "nothing", "Say welcome!") {
		t.Error("expected match in second haystack")
	}
	if ContainsFold(needle, "nothing", "here") {
		t.Error("unexpected match")
	}
	if !ContainsFold(Fold("ÉTÉ"), "un été chaud") {
		t.Error("expected non-ASCII letters to fold")
	}
}
