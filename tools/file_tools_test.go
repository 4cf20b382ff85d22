package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolvePath(t *testing.T) {
	dir := t.TempDir()
	ft := NewFileTools(dir)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", "a.txt", false},
		{"nested", "sub/dir/a.txt", false},
		{"workspace root", ".", false},
		{"parent escape", "../outside.txt", true},
		{"sneaky escape", "sub/../../outside.txt", true},
		{"absolute outside", "/etc/passwd", true},
		{"absolute inside", filepath.Join(dir, "a.txt"), false},
		{"sibling with shared prefix", dir + "-other/a.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ft.resolvePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("resolvePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}

	if _, err := NewFileTools("").resolvePath("a.txt"); err == nil {
		t.Error("empty workspace should be rejected")
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lines.txt", "one\ntwo\nthree\nfour")
	ft := NewFileTools(dir)
	ctx := context.Background()

	tests := []struct {
		name    string
		offset  int
		limit   int
		want    string
		wantErr bool
	}{
		{name: "whole file", want: "one\ntwo\nthree\nfour"},
		{name: "window", offset: 2, limit: 2, want: "[Lines 2-3 of 4]\ntwo\nthree"},
		{name: "offset past end", offset: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ft.Read(ctx, "lines.txt", tt.offset, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Read() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ft.Read(ctx, "missing.txt", 0, 0); err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("missing file error = %v", err)
	}
}

func TestEditRequiresUniqueMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dup.txt", "x = 1\nx = 1\n")
	ft := NewFileTools(dir)

	err := ft.Edit(context.Background(), "dup.txt", "x = 1", "x = 2")
	if err == nil || !strings.Contains(err.Error(), "appears 2 times") {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := ft.Edit(context.Background(), "dup.txt", "y", "z"); err == nil {
		t.Error("Edit() with absent text should fail")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "bb")
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "sub/c.txt", "c")
	ft := NewFileTools(dir)

	entries, err := ft.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []DirEntry{{Name: "sub", Type: "dir"}, {Name: "a.txt", Type: "file", Size: 1}, {Name: "b.txt", Type: "file", Size: 2}}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "")
	writeFile(t, dir, "data/sales.csv", "")
	writeFile(t, dir, "data/deep/more.csv", "")
	writeFile(t, dir, ".git/config.csv", "")
	ft := NewFileTools(dir)
	ctx := context.Background()

	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.go", []string{"main.go"}},
		{"data/*.csv", []string{"data/sales.csv"}},
		{"**/*.csv", []string{"data/deep/more.csv", "data/sales.csv"}},
		{"*.md", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, truncated, err := ft.Glob(ctx, tt.pattern)
			if err != nil {
				t.Fatalf("Glob() error = %v", err)
			}
			if truncated {
				t.Error("unexpected truncation")
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Glob(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}

	if _, _, err := ft.Glob(ctx, "[bad"); err == nil {
		t.Error("invalid pattern should fail")
	}
}
