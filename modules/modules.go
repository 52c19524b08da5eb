// Package modules lists the procedure modules compiled into the atomgrid
// binary.
package modules

import (
	"github.com/specialistvlad/atomgrid/internal/procedure"
	"github.com/specialistvlad/atomgrid/modules/concept"
	"github.com/specialistvlad/atomgrid/modules/env_vars"
	"github.com/specialistvlad/atomgrid/modules/listlink"
	"github.com/specialistvlad/atomgrid/modules/print"
)

// Core returns the definitive list of built-in modules.
func Core() []procedure.Module {
	return []procedure.Module{
		&listlink.Module{},
		&concept.Module{},
		&print.Module{},
		&env_vars.Module{},
	}
}
