// Package export renders a user's aggregated shopping list as a downloadable
// document.
package export

import (
	"fmt"
	"io"
)

// Title heads every shopping list document.
const Title = "Shopping List"

// Item is one aggregated ingredient line.
type Item struct {
	Name   string
	Unit   string
	Amount int64
}

// Line formats an item as "name: amount unit".
func Line(it Item) string {
	return fmt.Sprintf("%s: %d %s", it.Name, it.Amount, it.Unit)
}

// Renderer writes a shopping list in one document format.
type Renderer interface {
	ContentType() string
	Filename() string
	Render(w io.Writer, items []Item) error
}

// ForFormat returns the renderer for "pdf" (default) or "txt".
func ForFormat(format, fontPath string) (Renderer, error) {
	switch format {
	case "", "pdf":
		return PDF{FontPath: fontPath}, nil
	case "txt", "text":
		return Text{}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
