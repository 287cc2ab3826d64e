package document

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/matzehuels/nodewire/pkg/errors"
)

// ReadFile reads and strictly decodes a document. The codec is chosen by
// extension. A missing or unreadable file is EXTERNAL_IO_FAILURE.
func ReadFile(path string) (Document, error) {
	if err := errors.ValidateFilePath(path); err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeExternalIO, err, "read %s", path)
	}
	return CodecForPath(path).Decode(bytes.NewReader(data))
}

// WriteFile encodes a document and writes it to path. The data goes to a
// temporary file in the same directory first and is renamed into place, so
// a failed write never truncates an existing document.
func WriteFile(path string, doc Document) error {
	if err := errors.ValidateFilePath(path); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := CodecForPath(path).Encode(&buf, doc); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".nodewire-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeExternalIO, err, "write %s", path)
	}
	return nil
}
