// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines a command declaration and the logic for parsing it
// from HCL.
//
// Why have a formal ArgDefinition?
//
// By defining a clear, typed schema for a command's arguments, we
// establish a formal contract. The registry uses it to validate, at
// startup, that the manifest and the registered Go input struct agree,
// and to check, at dispatch time, that console-supplied JSON carries
// the right argument types — shifting error detection from execution
// to the edge where the request arrives.
package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"
)

// Command declares one externally buildable command.
type Command struct {
	// Name is the command's catalog name, from the block label.
	Name string

	// Description is an optional markdown string.
	Description string

	// Args maps argument name to its definition.
	Args map[string]*ArgDefinition
}

// ArgDefinition defines a single command argument.
type ArgDefinition struct {
	// Name is the argument's name, from the arg block label.
	Name string

	// Type is the value type this argument must carry.
	Type cty.Type

	// Description is an optional markdown string.
	Description string

	// Default is an optional value used when the caller omits the
	// argument. A nil Default makes the argument required.
	Default *cty.Value
}

// commandBodySchema is the HCL schema for the body of a command block.
var commandBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "arg", LabelNames: []string{"name"}},
	},
}

// argBodySchema is the HCL schema for the body of an arg block.
var argBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `type` is required, but we check for its existence manually
		// to provide a better error message.
		{Name: "type"},
		{Name: "description"},
		{Name: "default"},
	},
}

// parseCommand decodes a command block, including its arg blocks.
func parseCommand(ctx context.Context, block *commandBlock) (*Command, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	cmd := &Command{
		Name: block.Name,
		Args: make(map[string]*ArgDefinition),
	}

	bodyContent, contentDiags := block.Body.Content(commandBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	if descAttr, exists := bodyContent.Attributes["description"]; exists {
		diags = append(diags, gohcl.DecodeExpression(descAttr.Expr, nil, &cmd.Description)...)
	}

	for _, argBlock := range bodyContent.Blocks.OfType("arg") {
		// The schema guarantees us one label.
		argName := argBlock.Labels[0]

		if _, exists := cmd.Args[argName]; exists {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate arg definition",
				Detail:   fmt.Sprintf("An arg named '%s' has already been defined for command '%s'.", argName, cmd.Name),
				Subject:  &argBlock.DefRange,
			})
			continue
		}

		argContent, argDiags := argBlock.Body.Content(argBodySchema)
		diags = append(diags, argDiags...)
		if argDiags.HasErrors() {
			continue
		}

		typeAttr, exists := argContent.Attributes["type"]
		if !exists {
			missingItemRange := argBlock.Body.MissingItemRange()
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing 'type' attribute",
				Detail:   "The 'type' attribute is required for all arg blocks.",
				Subject:  &missingItemRange,
			})
			continue
		}

		ctyType, err := typeFromExpr(ctx, typeAttr.Expr)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid arg type",
				Detail:   err.Error(),
				Subject:  typeAttr.Expr.Range().Ptr(),
			})
			continue
		}

		var description string
		if descAttr, exists := argContent.Attributes["description"]; exists {
			diags = append(diags, gohcl.DecodeExpression(descAttr.Expr, nil, &description)...)
		}

		var defaultValue *cty.Value
		if defaultAttr, exists := argContent.Attributes["default"]; exists {
			// A nil eval context is used because defaults must be literal values.
			val, valDiags := defaultAttr.Expr.Value(nil)
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				continue
			}

			if !val.Type().Equals(ctyType) {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid default value type",
					Detail:   fmt.Sprintf("The default value for '%s' is not compatible with its type, '%s'.", argName, ctyType.FriendlyName()),
					Subject:  defaultAttr.Expr.Range().Ptr(),
				})
				continue
			}
			defaultValue = &val
		}

		cmd.Args[argName] = &ArgDefinition{
			Name:        argName,
			Type:        ctyType,
			Description: description,
			Default:     defaultValue,
		}
	}

	return cmd, diags
}
