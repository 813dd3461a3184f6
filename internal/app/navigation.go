package app

import (
	"github.com/sitewrap/sitewrap/internal/shared/origin"
	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// IsExternal reports whether target should leave the app window.
// Targets that do not parse as absolute URLs stay in the window; absolute
// URLs without a host, such as mailto: or file:, have an opaque origin and
// leave it.
func IsExternal(def *types.WebAppDefinition, target string) bool {
	if !def.Behavior.OpenExternalLinks {
		return false
	}
	o, err := origin.OfString(target)
	if err != nil {
		return false
	}
	return o != def.PrimaryOrigin
}
