package fetch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIsURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/interview": true,
		"http://example.com":            true,
		"www.example.com":               true,
		"  https://example.com  ":      true,
		"notes.txt":                     false,
		"/home/user/call.mp4":           false,
		"ftp://example.com":             false,
	}
	for input, want := range cases {
		if got := IsURL(input); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestExtractText(t *testing.T) {
	page := `<html><head><style>body { color: red }</style>
	<script>alert("no")</script></head>
	<body>
	<nav>Home | About</nav>
	<h1>Interview with Jane Doe</h1>
	<p>Interviewer:   So   tell me about the   product.</p>
	<p>Jane: We ship every week.</p>
	<footer>Copyright</footer>
	</body></html>`

	got := extractText(page)

	if strings.Contains(got, "alert") || strings.Contains(got, "color: red") {
		t.Errorf("script/style leaked into text:\n%s", got)
	}
	if strings.Contains(got, "Home | About") || strings.Contains(got, "Copyright") {
		t.Errorf("nav/footer leaked into text:\n%s", got)
	}

	lines := strings.Split(got, "\n")
	want := []string{
		"Interview with Jane Doe",
		"Interviewer: So tell me about the product.",
		"Jane: We ship every week.",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "rolodex/1.0 (personal-crm)" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte("<html><body><p>A conversation line.</p></body></html>"))
	}))
	defer srv.Close()

	text, err := Fetch(srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if text != "A conversation line." {
		t.Errorf("text = %q", text)
	}
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := Fetch(srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestFetchBadScheme(t *testing.T) {
	if _, err := Fetch("ftp://example.com/file"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}
