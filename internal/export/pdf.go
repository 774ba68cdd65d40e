package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"
)

// Page geometry in points, measured from the bottom edge of a Letter page.
const (
	pageHeight   = 792.0
	marginLeft   = 72.0
	titleY       = 750.0
	firstLineY   = 730.0
	nextPageY    = 750.0
	lineStep     = 20.0
	bottomMargin = 50.0
	fontSize     = 12.0
)

// PDF renders a Letter-sized list. FontPath points at a UTF-8 TrueType font;
// without it the bundled Go Regular font is used, which covers Latin, Greek
// and Cyrillic.
type PDF struct {
	FontPath string
}

func (PDF) ContentType() string { return "application/pdf" }
func (PDF) Filename() string    { return "shopping_cart.pdf" }

// Render writes the title on the first page and one line per item, starting
// a new page once the cursor drops below the bottom margin.
func (p PDF) Render(w io.Writer, items []Item) error {
	doc, err := p.build(items)
	if err != nil {
		return err
	}
	return doc.Output(w)
}

func (p PDF) build(items []Item) (*fpdf.Fpdf, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetTitle(Title, true)
	doc.SetAutoPageBreak(false, 0)

	if p.FontPath != "" {
		doc.AddUTF8Font("body", "", p.FontPath)
	} else {
		doc.AddUTF8FontFromBytes("body", "", goregular.TTF)
	}
	doc.SetFont("body", "", fontSize)
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	doc.AddPage()
	draw := func(y float64, s string) { doc.Text(marginLeft, pageHeight-y, s) }
	draw(titleY, Title)

	for _, ln := range layout(items) {
		if ln.newPage {
			doc.AddPage()
		}
		draw(ln.y, ln.text)
	}
	return doc, doc.Error()
}

type placedLine struct {
	y       float64
	text    string
	newPage bool
}

// layout assigns each line its baseline. A page break only happens when
// another line follows, so there is never a trailing blank page.
func layout(items []Item) []placedLine {
	out := make([]placedLine, 0, len(items))
	y := firstLineY
	brk := false
	for _, it := range items {
		out = append(out, placedLine{y: y, text: Line(it), newPage: brk})
		brk = false
		y -= lineStep
		if y < bottomMargin {
			brk = true
			y = nextPageY
		}
	}
	return out
}
