// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file loads every module manifest under the configured modules
// path. Discovery is by file name: each module directory carries one
// manifest.hcl.
package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/fsutil"
)

// FileName is the manifest file looked for in each module directory.
const FileName = "manifest.hcl"

// Load parses every manifest under rootPath. Parse problems across all
// files are accumulated and returned as one diagnostic set.
func Load(ctx context.Context, rootPath string) ([]*Module, error) {
	logger := ctxlog.FromContext(ctx)

	paths, err := fsutil.FindFilesByName(rootPath, FileName)
	if err != nil {
		return nil, fmt.Errorf("scanning modules path %q: %w", rootPath, err)
	}
	logger.Debug("Discovered module manifests.", "root", rootPath, "count", len(paths))

	parser := hclparse.NewParser()
	var modules []*Module
	var allDiags hcl.Diagnostics

	for _, path := range paths {
		file, diags := parser.ParseHCLFile(path)
		allDiags = append(allDiags, diags...)
		if diags.HasErrors() {
			continue
		}

		mod, modDiags := ParseFile(ctx, file, path)
		allDiags = append(allDiags, modDiags...)
		if modDiags.HasErrors() {
			continue
		}
		modules = append(modules, mod)
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}
	return modules, nil
}
