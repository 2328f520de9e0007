package selection

import (
	"errors"

	"github.com/ncruces/zenity"
)

// Picker opens the native multi-file chooser filtered to accepted types.
// Cancelling returns no paths and no error.
func Picker() ([]string, error) {
	paths, err := zenity.SelectFileMultiple(
		zenity.Title("Select images to convert"),
		zenity.FileFilters{
			{
				Name:     "Images (JPG, PNG, WEBP, AVIF)",
				Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.webp", "*.avif"},
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil, nil
		}
		return nil, err
	}
	return paths, nil
}
