package app

import (
	"github.com/vk/framewire/internal/registry"
	"github.com/vk/framewire/modules/audio"
	"github.com/vk/framewire/modules/display"
	"github.com/vk/framewire/modules/render"
)

// coreModules is the definitive list of all subsystem modules that are
// compiled into the framewire binary. The console is not a subsystem
// module; the app manages it directly because it needs the pump.
var coreModules = []registry.Module{
	&display.Module{},
	&audio.Module{},
	&render.Module{},
}
