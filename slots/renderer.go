package slots

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrTemplateNotFound is returned when the template file does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// Renderer loads templates from a read-only file store. Templates are read
// and parsed on every call.
type Renderer struct {
	fsys    fs.FS
	markers []Marker
}

// NewRenderer returns a Renderer reading from fsys. With no markers given,
// DefaultMarkers are used.
func NewRenderer(fsys fs.FS, markers ...Marker) *Renderer {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Renderer{fsys: fsys, markers: markers}
}

// Render loads the template at path and fills its slots from values. Values
// are inserted as given, without HTML escaping.
func (r *Renderer) Render(path string, values map[string]string) (string, error) {
	src, err := fs.ReadFile(r.fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return "", fmt.Errorf("read template %s: %w", path, err)
	}
	return Parse(string(src), r.markers).Execute(values), nil
}
