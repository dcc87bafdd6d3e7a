package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/framewire/internal/ctxlog"
)

// Validate performs a strict parity check between manifests and Go
// code. It checks both the presence of commands, args, and services
// and the compatibility of arg types.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	for name := range r.commands {
		if _, ok := r.commandDefs[name]; !ok {
			errs = append(errs, fmt.Sprintf("command '%s': factory registered in Go but not declared in any manifest", name))
		}
	}

	for name, def := range r.commandDefs {
		rc, ok := r.commands[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("command '%s': declared in %s but no Go factory registered", name, r.defSources[name]))
			continue
		}

		inputType := reflect.TypeOf(rc.NewInput())
		for inputType != nil && inputType.Kind() == reflect.Pointer {
			inputType = inputType.Elem()
		}
		if inputType == nil || inputType.Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("command '%s': NewInput must return a pointer to a struct", name))
			continue
		}

		goArgs := make(map[string]reflect.StructField)
		for i := 0; i < inputType.NumField(); i++ {
			field := inputType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("cty"), ",")[0]
			if tagName != "" && tagName != "-" {
				goArgs[tagName] = field
			}
		}

		// Check for presence mismatches.
		for argName := range goArgs {
			if _, ok := def.Args[argName]; !ok {
				errs = append(errs, fmt.Sprintf("command '%s': Go input struct has field for arg '%s' which is not declared in manifest", name, argName))
			}
		}
		for argName := range def.Args {
			if _, ok := goArgs[argName]; !ok {
				errs = append(errs, fmt.Sprintf("command '%s': manifest declares arg '%s' which is not found in Go input struct", name, argName))
			}
		}

		// Check for type mismatches.
		for argName, argDef := range def.Args {
			goField, ok := goArgs[argName]
			if !ok {
				continue // Already handled by presence check
			}

			if argDef.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Manifest declares arg with 'type = any', which disables static type checking. Consider using a specific type like 'string', 'number', or 'bool'.", "command", name, "arg", argName)
				continue
			}

			goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("command '%s', arg '%s': could not imply cty type from Go field type %s: %v", name, argName, goField.Type, err))
				continue
			}

			if !argDef.Type.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("command '%s', arg '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides '%s'",
					name, argName, argDef.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	providedNames := r.Services.Names()
	provided := make(map[string]struct{}, len(providedNames))
	for _, name := range providedNames {
		provided[name] = struct{}{}
	}
	for name := range r.serviceDefs {
		if _, ok := provided[name]; !ok {
			errs = append(errs, fmt.Sprintf("service '%s': declared in %s but no provider registered", name, r.defSources["service:"+name]))
		}
	}
	for _, name := range providedNames {
		if _, ok := r.serviceDefs[name]; !ok {
			errs = append(errs, fmt.Sprintf("service '%s': provider registered but not declared in any manifest", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
