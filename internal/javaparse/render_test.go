package javaparse

import "testing"

func TestJoinTokens(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"empty", nil, ""},
		{"words", []string{"public", "int", "add"}, "public int add"},
		{"punctuation", []string{"add", "(", "int", "a", ",", "int", "b", ")"}, "add(int a,int b)"},
		{"annotation", []string{"@", "Override", "public", "void", "run"}, "@Override public void run"},
		{"generic", []string{"List", "<", "String", ">", "names"}, "List<String> names"},
		{"nested generic", []string{"Map", "<", "K", ",", "List", "<", "V", ">", ">", "m"}, "Map<K,List<V>> m"},
		{"array", []string{"String", "[", "]", "args"}, "String[] args"},
		{"varargs", []string{"int", "...", "rest"}, "int... rest"},
		{"index", []string{"a", "[", "i", "]", ";"}, "a[i];"},
		{"binary operator", []string{"a", "+", "b"}, "a+b"},
		{"split unary minus", []string{"return", "-", "-", "j", ";"}, "return - -j;"},
		{"decrement", []string{"return", "--", "j", ";"}, "return --j;"},
		{"split plus", []string{"i", "+", "+", "j"}, "i+ +j"},
		{"increment then plus", []string{"i", "++", "+", "j"}, "i++ +j"},
		{"dollar identifier", []string{"int", "$x"}, "int $x"},
		{"skips empty tokens", []string{"return", "", "x", ";"}, "return x;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinTokens(tt.tokens); got != tt.want {
				t.Errorf("joinTokens(%q) = %q, want %q", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestBracketList(t *testing.T) {
	if got := bracketList(nil); got != "[]" {
		t.Errorf("bracketList(nil) = %q", got)
	}
	if got := bracketList([]string{"int a", "String... rest"}); got != "[int a, String... rest]" {
		t.Errorf("bracketList = %q", got)
	}
}
