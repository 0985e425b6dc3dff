package main

import (
	"testing"
)

func Test_titleOrDefault(t *testing.T) {
	cases := []struct {
		path, title, want string
	}{
		{"/tmp/report.pdf", "Quarterly", "Quarterly"},
		{"/tmp/report.pdf", "", "report"},
		{"notes.txt", "  ", "notes"},
		{"/tmp/archive.tar.gz", "", "archive.tar"},
		{"README", "", "README"},
	}
	for _, tc := range cases {
		if got := titleOrDefault(tc.path, tc.title); got != tc.want {
			t.Fatalf("titleOrDefault(%q, %q) = %q, want %q", tc.path, tc.title, got, tc.want)
		}
	}
}

func Test_parseID(t *testing.T) {
	if _, err := parseID(""); err == nil {
		t.Fatalf("want error for empty id")
	}
	if _, err := parseID("abc"); err == nil {
		t.Fatalf("want error for non-numeric id")
	}
	if _, err := parseID("-3"); err == nil {
		t.Fatalf("want error for negative id")
	}
	id, err := parseID("42")
	if err != nil || id != 42 {
		t.Fatalf("parseID(42): id=%d err=%v", id, err)
	}
}
