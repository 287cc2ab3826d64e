package storage

import (
	"context"
	goerrors "errors"

	"github.com/ncruces/zenity"

	"github.com/matzehuels/nodewire/pkg/errors"
)

var documentFilters = zenity.FileFilters{
	{Name: "nodewire documents", Patterns: []string{"*.json", "*.msgpack", "*.mpk"}, CaseFold: true},
}

// OpenDialog asks for an existing document with a native file dialog.
// Dismissing the dialog is CANCELED.
func OpenDialog(ctx context.Context, title string) (*File, error) {
	path, err := zenity.SelectFile(
		zenity.Context(ctx),
		zenity.Title(title),
		documentFilters,
	)
	if err != nil {
		return nil, dialogError(err)
	}
	return NewFile(path), nil
}

// SaveDialog asks where to save a document, suggesting filename.
func SaveDialog(ctx context.Context, title, filename string) (*File, error) {
	path, err := zenity.SelectFileSave(
		zenity.Context(ctx),
		zenity.Title(title),
		zenity.Filename(filename),
		zenity.ConfirmOverwrite(),
		documentFilters,
	)
	if err != nil {
		return nil, dialogError(err)
	}
	return NewFile(path), nil
}

func dialogError(err error) error {
	if goerrors.Is(err, zenity.ErrCanceled) {
		return errors.Wrap(errors.ErrCodeCanceled, err, "file dialog dismissed")
	}
	return errors.Wrap(errors.ErrCodeExternalIO, err, "file dialog")
}
