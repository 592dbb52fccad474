package dolx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrBadDescriptor is returned for descriptors that cannot describe a binary.
var ErrBadDescriptor = errors.New("invalid binary descriptor")

// Descriptor is the YAML description of a binary and the layout parameters
// needed to load it.
type Descriptor struct {
	Type         string   `yaml:"type" json:"type,omitempty" jsonschema:"title=Type,enum=dol,enum=rel,description=Container format; inferred from the path extension when empty"`
	Path         string   `yaml:"path" json:"path" jsonschema:"title=Path,description=Path to the binary relative to the descriptor"`
	ModuleID     *uint32  `yaml:"module_id,omitempty" json:"module_id,omitempty" jsonschema:"title=Module ID,description=Expected REL module id"`
	Address      uint32   `yaml:"address,omitempty" json:"address,omitempty" jsonschema:"title=Address,description=Load address of a REL image"`
	BSSAddress   uint32   `yaml:"bss_address,omitempty" json:"bss_address,omitempty" jsonschema:"title=BSS Address,description=Address of the REL bss section; 0 places it after the image"`
	SectionNames []string `yaml:"section_names,omitempty" json:"section_names,omitempty" jsonschema:"title=Section Names,description=Section names in section order"`

	dir string
}

// LoadDescriptor reads and validates a descriptor file.
func LoadDescriptor(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadDescriptor, path, err)
	}
	d.dir = filepath.Dir(path)

	if d.Path == "" {
		return nil, fmt.Errorf("%w: %s: path is required", ErrBadDescriptor, path)
	}
	if d.Type == "" {
		d.Type = strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Path)), ".")
	}
	if d.Type != "dol" && d.Type != "rel" {
		return nil, fmt.Errorf("%w: %s: unknown type %q", ErrBadDescriptor, path, d.Type)
	}
	return &d, nil
}

// BinaryPath returns the described binary's path.
func (d *Descriptor) BinaryPath() string {
	if filepath.IsAbs(d.Path) {
		return d.Path
	}
	return filepath.Join(d.dir, d.Path)
}

// Load opens the described binary.
func (d *Descriptor) Load() (*Image, error) {
	return d.LoadOther(d.BinaryPath())
}

// LoadOther opens another binary at path with the layout parameters of d.
func (d *Descriptor) LoadOther(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read binary: %w", err)
	}

	im, err := d.parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	im.Path = path
	return im, nil
}

func (d *Descriptor) parse(data []byte) (*Image, error) {
	if d.Type == "dol" {
		return ParseDOL(data, d.SectionNames)
	}

	im, err := ParseREL(data, RELConfig{
		Address:    d.Address,
		BSSAddress: d.BSSAddress,
		Names:      d.SectionNames,
	})
	if err != nil {
		return nil, err
	}
	if d.ModuleID != nil && *d.ModuleID != im.ModuleID {
		return nil, fmt.Errorf("%w: header has %d, expected %d", ErrModuleID, im.ModuleID, *d.ModuleID)
	}
	return im, nil
}
