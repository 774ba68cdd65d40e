package export

import (
	"bufio"
	"io"
)

// Text renders the list as plain UTF-8 lines.
type Text struct{}

func (Text) ContentType() string { return "text/plain; charset=utf-8" }
func (Text) Filename() string    { return "shopping_cart.txt" }

func (Text) Render(w io.Writer, items []Item) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(Title + "\n\n")
	for _, it := range items {
		bw.WriteString(Line(it) + "\n")
	}
	return bw.Flush()
}
