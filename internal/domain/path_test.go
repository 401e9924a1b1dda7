package domain_test

import (
	"testing"

	"github.com/doeshing/cmdcenter/internal/domain"
)

func TestAbsolutePath(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		cwd  string
		want string
	}{
		{name: "empty goes home", arg: "", cwd: "/home/user/documents", want: "/home/user"},
		{name: "tilde", arg: "~", cwd: "/home/user/pictures", want: "/home/user"},
		{name: "tilde prefix", arg: "~/documents", cwd: "/home/user/pictures", want: "/home/user/documents"},
		{name: "absolute", arg: "/home/user/pictures", cwd: "/home/user", want: "/home/user/pictures"},
		{name: "parent", arg: "..", cwd: "/home/user/documents", want: "/home/user"},
		{name: "parent at home is a no-op", arg: "..", cwd: "/home/user", want: "/home/user"},
		{name: "relative", arg: "documents", cwd: "/home/user", want: "/home/user/documents"},
		{name: "relative from slash", arg: "etc", cwd: "/", want: "/etc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.AbsolutePath(tt.arg, tt.cwd); got != tt.want {
				t.Errorf("AbsolutePath(%q, %q) = %q, want %q", tt.arg, tt.cwd, got, tt.want)
			}
		})
	}
}

func TestMountSegments(t *testing.T) {
	if segs, ok := domain.MountSegments("/home/user"); !ok || len(segs) != 0 {
		t.Errorf("home: got %v, %v", segs, ok)
	}
	if segs, ok := domain.MountSegments("/home/user//documents/"); !ok || len(segs) != 1 || segs[0] != "documents" {
		t.Errorf("documents: got %v, %v", segs, ok)
	}
	if _, ok := domain.MountSegments("/etc/passwd"); ok {
		t.Error("path outside home should not mount")
	}
	if _, ok := domain.MountSegments("/home"); ok {
		t.Error("ancestor of home should not mount")
	}
}

func TestDisplayPath(t *testing.T) {
	tests := map[string]string{
		"/home/user":           "~",
		"/home/user/documents": "~/documents",
		"/home/username":       "/home/username",
		"/tmp":                 "/tmp",
	}
	for in, want := range tests {
		if got := domain.DisplayPath(in); got != want {
			t.Errorf("DisplayPath(%q) = %q, want %q", in, got, want)
		}
	}
}
