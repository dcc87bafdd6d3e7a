// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Module manifest, the declarative half of a
// framewire module: the commands a module exposes to external surfaces
// and the service capabilities it promises to provide.
//
// Why declare commands in manifests at all?
//
// The Go side of a module registers command factories and service
// providers; the manifest states the intended contract. Keeping a
// declarative copy lets the registry validate, at startup, that code
// and contract agree in both directions, and gives external surfaces
// (the dev console) a typed schema for building commands out of plain
// JSON instead of reaching into Go types.
package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/framewire/internal/ctxlog"
)

// Module is the parsed manifest of one framewire module.
type Module struct {
	// Name is the module's identity, from the module block.
	Name string

	// Description is an optional markdown string describing the module.
	Description string

	// SourcePath is the manifest file this module was parsed from.
	SourcePath string

	// Commands maps command name to its declaration.
	Commands map[string]*Command

	// Services maps service name to its declaration.
	Services map[string]*Service
}

// Service declares a capability the module provides to the service
// registry.
type Service struct {
	Name        string
	Description string
}

// rootSchema is the top-level structure of a manifest file.
type rootSchema struct {
	Module   *moduleBlock    `hcl:"module,block"`
	Commands []*commandBlock `hcl:"command,block"`
	Services []*serviceBlock `hcl:"service,block"`
}

type moduleBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type commandBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type serviceBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// moduleBodySchema is the HCL schema for the body of the module block.
var moduleBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `name` is required, but we check for its existence manually
		// to provide a better error message.
		{Name: "name"},
		{Name: "description"},
	},
}

// serviceBodySchema is the HCL schema for the body of a service block.
var serviceBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
	},
}

// ParseFile decodes one manifest file into a Module.
func ParseFile(ctx context.Context, hclFile *hcl.File, filePath string) (*Module, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing module manifest.", "file_path", filePath)

	var allDiags hcl.Diagnostics
	if hclFile == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		})
		return nil, allDiags
	}

	schema := &rootSchema{}
	diags := gohcl.DecodeBody(hclFile.Body, nil, schema)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	if schema.Module == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing module block",
			Detail:   fmt.Sprintf("The manifest %s must declare exactly one module block.", filePath),
		})
		return nil, allDiags
	}

	mod := &Module{
		SourcePath: filePath,
		Commands:   make(map[string]*Command),
		Services:   make(map[string]*Service),
	}

	bodyContent, contentDiags := schema.Module.Body.Content(moduleBodySchema)
	allDiags = append(allDiags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, allDiags
	}

	nameAttr, exists := bodyContent.Attributes["name"]
	if !exists {
		missingItemRange := schema.Module.Body.MissingItemRange()
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'name' attribute",
			Detail:   "The module block requires a 'name' attribute.",
			Subject:  &missingItemRange,
		})
		return nil, allDiags
	}
	allDiags = append(allDiags, gohcl.DecodeExpression(nameAttr.Expr, nil, &mod.Name)...)

	if descAttr, exists := bodyContent.Attributes["description"]; exists {
		allDiags = append(allDiags, gohcl.DecodeExpression(descAttr.Expr, nil, &mod.Description)...)
	}

	for _, block := range schema.Commands {
		if _, exists := mod.Commands[block.Name]; exists {
			allDiags = append(allDiags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate command definition",
				Detail:   fmt.Sprintf("A command named '%s' has already been defined in this manifest.", block.Name),
			})
			continue
		}
		cmd, cmdDiags := parseCommand(ctx, block)
		allDiags = append(allDiags, cmdDiags...)
		if cmdDiags.HasErrors() {
			continue
		}
		mod.Commands[block.Name] = cmd
	}

	for _, block := range schema.Services {
		if _, exists := mod.Services[block.Name]; exists {
			allDiags = append(allDiags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate service definition",
				Detail:   fmt.Sprintf("A service named '%s' has already been defined in this manifest.", block.Name),
			})
			continue
		}

		svc := &Service{Name: block.Name}
		svcContent, svcDiags := block.Body.Content(serviceBodySchema)
		allDiags = append(allDiags, svcDiags...)
		if svcDiags.HasErrors() {
			continue
		}
		if descAttr, exists := svcContent.Attributes["description"]; exists {
			allDiags = append(allDiags, gohcl.DecodeExpression(descAttr.Expr, nil, &svc.Description)...)
		}
		mod.Services[block.Name] = svc
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}
	return mod, allDiags
}
