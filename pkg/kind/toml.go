package kind

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nodewire/pkg/errors"
	"github.com/matzehuels/nodewire/pkg/socket"
)

// file is the on-disk layout of a definitions file.
type file struct {
	Sockets    []socket.Kind `toml:"sockets"`
	Compatible []struct {
		Source socket.Kind `toml:"source"`
		Target socket.Kind `toml:"target"`
	} `toml:"compatible"`
	Kinds []Definition `toml:"kinds"`
}

// LoadTOML reads a definitions file and adds its sockets, compatibility
// edges and kinds to set and its registry. See the package documentation for the
// file layout.
func LoadTOML(path string, set *Set) error {
	if err := errors.ValidateFilePath(path); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "read definitions %s", path)
	}
	return DecodeTOML(data, set)
}

// DecodeTOML adds the sockets, compatibility edges and kinds described by
// data to set and its registry. Unknown keys are rejected so that typos in
// a definitions file surface instead of silently dropping a port.
//
// Sockets are declared first, then edges, then kinds. Processing stops at
// the first error; entries already applied stay applied.
func DecodeTOML(data []byte, set *Set) error {
	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse definitions")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "unknown definitions key %q", undecoded[0].String())
	}

	reg := set.Sockets()
	if len(f.Sockets) > 0 {
		if err := reg.Declare(f.Sockets...); err != nil {
			return err
		}
	}
	for _, c := range f.Compatible {
		if err := reg.Allow(c.Source, c.Target); err != nil {
			return err
		}
	}
	for _, def := range f.Kinds {
		if err := set.Register(def); err != nil {
			return err
		}
	}
	return nil
}
