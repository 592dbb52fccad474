package disasm

import (
	"errors"
	"fmt"
	"runtime/debug"
)

const decoderModule = "golang.org/x/arch"

// DecoderVersion is the decoder module version the defect tables were
// characterized against.
const DecoderVersion = "v0.20.0"

// ErrDecoderVersion is returned when a different decoder version is linked in.
var ErrDecoderVersion = errors.New("unsupported decoder version")

// CheckDecoderVersion verifies the decoder module recorded in info.
// Binaries that do not record the module (nil info, test binaries) pass.
func CheckDecoderVersion(info *debug.BuildInfo) error {
	if info == nil {
		return nil
	}
	for _, dep := range info.Deps {
		if dep == nil || dep.Path != decoderModule {
			continue
		}
		if dep.Replace != nil {
			dep = dep.Replace
		}
		if dep.Version != DecoderVersion {
			return fmt.Errorf("%w: %s %s is linked, %s is required", ErrDecoderVersion, decoderModule, dep.Version, DecoderVersion)
		}
		return nil
	}
	return nil
}
