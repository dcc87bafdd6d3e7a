package registry

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/framewire/internal/command"
	"github.com/vk/framewire/internal/ctxlog"
)

// Build constructs a typed command from its catalog name and raw JSON
// arguments. Supplied args are type-converted against the manifest
// declaration, defaults fill the gaps, and missing required args or
// unknown args are errors. The filled input struct is handed to the
// registered factory.
func (r *Registry) Build(ctx context.Context, name string, argsJSON []byte) (command.Command, error) {
	r.mu.Lock()
	rc, okFactory := r.commands[name]
	def, okDef := r.commandDefs[name]
	r.mu.Unlock()

	if !okFactory || !okDef {
		return nil, fmt.Errorf("unknown command %q", name)
	}

	supplied := make(map[string]cty.Value)
	if len(argsJSON) > 0 {
		impliedType, err := ctyjson.ImpliedType(argsJSON)
		if err != nil {
			return nil, fmt.Errorf("decoding args for %q: %w", name, err)
		}
		raw, err := ctyjson.Unmarshal(argsJSON, impliedType)
		if err != nil {
			return nil, fmt.Errorf("decoding args for %q: %w", name, err)
		}
		if !raw.Type().IsObjectType() {
			return nil, fmt.Errorf("args for %q must be a JSON object", name)
		}
		if raw.LengthInt() > 0 {
			supplied = raw.AsValueMap()
		}
	}

	for argName := range supplied {
		if _, declared := def.Args[argName]; !declared {
			return nil, fmt.Errorf("command %q has no arg %q", name, argName)
		}
	}

	vals := make(map[string]cty.Value, len(def.Args))
	for argName, arg := range def.Args {
		if got, ok := supplied[argName]; ok {
			converted, err := convert.Convert(got, arg.Type)
			if err != nil {
				return nil, fmt.Errorf("arg %q of command %q: %w", argName, name, err)
			}
			vals[argName] = converted
			continue
		}
		if arg.Default != nil {
			vals[argName] = *arg.Default
			continue
		}
		return nil, fmt.Errorf("missing required arg %q for command %q", argName, name)
	}

	input := rc.NewInput()
	if len(vals) > 0 {
		if err := gocty.FromCtyValue(cty.ObjectVal(vals), input); err != nil {
			return nil, fmt.Errorf("building input for %q: %w", name, err)
		}
	}

	cmd, err := rc.Build(input)
	if err != nil {
		return nil, fmt.Errorf("building command %q: %w", name, err)
	}

	ctxlog.FromContext(ctx).Debug("Built command from catalog.", "name", name)
	return cmd, nil
}
