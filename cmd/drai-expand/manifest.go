package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"drai/internal/pipeline"
	"drai/internal/project"
)

// loadManifest returns the drai.toml named by --manifest or found by walking
// up from the working directory. It returns nil when there is none or
// --no-manifest is set.
func loadManifest(cmd *cobra.Command) (*project.Manifest, error) {
	pf := cmd.Root().PersistentFlags()
	if off, _ := pf.GetBool("no-manifest"); off {
		return nil, nil
	}
	path, err := pf.GetString("manifest")
	if err != nil {
		return nil, err
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		found, ok, err := project.FindManifest(wd)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		path = found
	}
	return project.Load(path)
}

// applyManifest fills options the flags left empty. Manifest include dirs
// and defines come before the ones given on the command line.
func applyManifest(opts *pipeline.Options, m *project.Manifest) {
	s := m.Expand
	dirs := make([]string, 0, len(s.IncludeDirs)+len(opts.IncludeDirs))
	for _, dir := range s.IncludeDirs {
		dirs = append(dirs, m.Abs(dir))
	}
	opts.IncludeDirs = append(dirs, opts.IncludeDirs...)
	opts.Defines = slices.Concat(s.Defines, opts.Defines)
	if opts.Artifact == "" && s.Artifact != "" {
		opts.Artifact = m.Abs(s.Artifact)
	}
	if opts.Target == "" {
		opts.Target = s.Target
	}
	opts.KernelAttributes = slices.Concat(s.KernelAttributes, opts.KernelAttributes)
	if opts.BaseDir == "" {
		opts.BaseDir = m.Root
	}
}
