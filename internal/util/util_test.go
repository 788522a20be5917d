package util

import (
	"strings"
	"testing"
)

func TestExpandEnvUniversal(t *testing.T) {
	t.Setenv("PIPE_TEST_VAR", "value")

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "unix style", input: "$PIPE_TEST_VAR/data", want: "value/data"},
		{name: "unix braces", input: "${PIPE_TEST_VAR}/data", want: "value/data"},
		{name: "windows style", input: "%PIPE_TEST_VAR%\\data", want: "value\\data"},
		{name: "unknown variable", input: "%NOPE_UNSET_VAR%", want: ""},
		{name: "no variables", input: "plain/path", want: "plain/path"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExpandEnvUniversal(tc.input); got != tc.want {
				t.Errorf("ExpandEnvUniversal(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet(nil); got != "" {
		t.Errorf("Snippet(nil) = %q, want empty", got)
	}
	if got := Snippet([]byte("short")); got != "short" {
		t.Errorf("Snippet = %q, want %q", got, "short")
	}
	long := strings.Repeat("a", 300)
	got := Snippet([]byte(long))
	if len([]rune(got)) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("long input not truncated with ellipsis: %d runes", len([]rune(got)))
	}
}

func TestLooksLikeJSON(t *testing.T) {
	testCases := []struct {
		input string
		want  bool
	}{
		{`{"a": 1}`, true},
		{`  [1, 2]  `, true},
		{`plain text`, false},
		{`{unclosed`, false},
	}
	for _, tc := range testCases {
		if got := LooksLikeJSON(tc.input); got != tc.want {
			t.Errorf("LooksLikeJSON(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestMaskCredentials(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "uri with password", input: "postgres://user:hunter2@db:5432/app", want: "postgres://user:********@db:5432/app"},
		{name: "uri without password", input: "postgres://user@db:5432/app", want: "postgres://user@db:5432/app"},
		{name: "uri without userinfo", input: "https://example.com/api", want: "https://example.com/api"},
		{name: "not a uri", input: "just a string", want: "just a string"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskCredentials(tc.input); got != tc.want {
				t.Errorf("MaskCredentials(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestMaskSensitiveData(t *testing.T) {
	data := map[string]interface{}{
		"api_token": "abc123",
		"email":     "x@example.com",
		"conn":      "postgres://u:p@h/db",
		"nested": map[string]interface{}{
			"password": "qwerty",
			"plain":    42,
		},
	}
	got := MaskSensitiveData(data)

	if got["api_token"] != "********" {
		t.Errorf("api_token not masked: %v", got["api_token"])
	}
	if got["email"] != "x@example.com" {
		t.Errorf("non-sensitive value altered: %v", got["email"])
	}
	if got["conn"] != "postgres://u:********@h/db" {
		t.Errorf("embedded URI password not masked: %v", got["conn"])
	}
	nested := got["nested"].(map[string]interface{})
	if nested["password"] != "********" || nested["plain"] != 42 {
		t.Errorf("nested map not masked correctly: %v", nested)
	}
	// Source map untouched.
	if data["api_token"] != "abc123" {
		t.Error("masking mutated the input map")
	}
}
