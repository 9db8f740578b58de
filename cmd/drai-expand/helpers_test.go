package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"drai/internal/pipeline"
	"drai/internal/project"
)

func writeManifest(t *testing.T, data string) *project.Manifest {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, project.ManifestName)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write drai.toml: %v", err)
	}
	m, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func TestApplyManifest(t *testing.T) {
	m := writeManifest(t, `
[expand]
include_dirs = ["include"]
defines = ["MODE=1"]
artifact = "build/kernels.o"
target = "drai-test"
kernel_attributes = ["__my_kernel__"]
`)
	opts := pipeline.Options{
		IncludeDirs: []string{"/usr/local/include"},
		Defines:     []string{"MODE=2"},
	}
	applyManifest(&opts, m)

	wantDirs := []string{filepath.Join(m.Root, "include"), "/usr/local/include"}
	if !slices.Equal(opts.IncludeDirs, wantDirs) {
		t.Fatalf("IncludeDirs = %v, want %v", opts.IncludeDirs, wantDirs)
	}
	// later -D wins in the preprocessor, so flags go last
	if !slices.Equal(opts.Defines, []string{"MODE=1", "MODE=2"}) {
		t.Fatalf("Defines = %v", opts.Defines)
	}
	if opts.Artifact != filepath.Join(m.Root, "build", "kernels.o") {
		t.Fatalf("Artifact = %q", opts.Artifact)
	}
	if opts.Target != "drai-test" {
		t.Fatalf("Target = %q", opts.Target)
	}
	if !slices.Equal(opts.KernelAttributes, []string{"__my_kernel__"}) {
		t.Fatalf("KernelAttributes = %v", opts.KernelAttributes)
	}
	if opts.BaseDir != m.Root {
		t.Fatalf("BaseDir = %q", opts.BaseDir)
	}
}

func TestApplyManifestKeepsFlags(t *testing.T) {
	m := writeManifest(t, `
[expand]
artifact = "build/kernels.o"
target = "drai-test"
`)
	opts := pipeline.Options{Artifact: "/tmp/other.o", Target: "flag-target"}
	applyManifest(&opts, m)
	if opts.Artifact != "/tmp/other.o" || opts.Target != "flag-target" {
		t.Fatalf("flags overridden: artifact=%q target=%q", opts.Artifact, opts.Target)
	}
}

func TestSelectUnits(t *testing.T) {
	m := writeManifest(t, `
[expand]
artifact = "k.o"

[[unit]]
input = "a.cu"
output = "out/a.cu"

[[unit]]
name = "second"
input = "b.cu"
output = "out/b.cu"
`)
	all, err := selectUnits(m, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("selectUnits(nil) = %v, %v", all, err)
	}
	one, err := selectUnits(m, []string{"second"})
	if err != nil {
		t.Fatalf("selectUnits: %v", err)
	}
	if len(one) != 1 || one[0].Input != "b.cu" {
		t.Fatalf("selectUnits(second) = %v", one)
	}
	if _, err := selectUnits(m, []string{"missing"}); err == nil {
		t.Fatalf("expected error for unknown unit")
	}
}

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		in   string
		want uiMode
		ok   bool
	}{
		{"", uiModeAuto, true},
		{"AUTO", uiModeAuto, true},
		{" on ", uiModeOn, true},
		{"off", uiModeOff, true},
		{"sometimes", "", false},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("readUIMode(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestUIModeFlagValue(t *testing.T) {
	m := uiModeAuto
	if err := m.Set("OFF"); err != nil || m != uiModeOff {
		t.Fatalf("Set(OFF) = %v, mode %q", err, m)
	}
	if err := m.Set("loud"); err == nil {
		t.Fatalf("Set(loud) accepted")
	}
	if m != uiModeOff || m.useTUI() {
		t.Fatalf("rejected value changed mode to %q", m)
	}
}

func TestFlattenErrors(t *testing.T) {
	a := &pipeline.StageError{Stage: pipeline.StageExpand, Err: errors.New("a")}
	b := &pipeline.StageError{Stage: pipeline.StageWriteOutput, Err: errors.New("b")}
	plain := errors.New("plain")
	got := flattenErrors(errors.Join(a, errors.Join(plain, b)))
	if len(got) != 3 || got[0] != a || got[1] != plain || got[2] != b {
		t.Fatalf("flattenErrors = %v", got)
	}
	if single := flattenErrors(a); len(single) != 1 || single[0] != a {
		t.Fatalf("flattenErrors(single) = %v", single)
	}
}
