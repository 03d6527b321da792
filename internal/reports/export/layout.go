package export

// PageSpec describes page geometry in points.
type PageSpec struct {
	Height        float64
	MarginTop     float64
	MarginBottom  float64
	TitleHeight   float64
	HeadingHeight float64
	RowHeight     float64
	TableGap      float64
}

// A4Portrait is the default page geometry.
var A4Portrait = PageSpec{
	Height:        842,
	MarginTop:     40,
	MarginBottom:  40,
	TitleHeight:   36,
	HeadingHeight: 24,
	RowHeight:     18,
	TableGap:      16,
}

// Table is a titled grid of cells.
type Table struct {
	Heading string
	Columns []string
	Rows    [][]string
}

// Block is the part of a table placed on one page.
type Block struct {
	Heading   string
	Continued bool
	Columns   []string
	Rows      [][]string
	StartY    float64
	EndY      float64
}

// Page is one laid-out page.
type Page struct {
	Number int
	Title  string
	Blocks []Block
}

// Layout places tables on pages, tracking the running cursor FinalY so
// successive tables continue below the previous one.
type Layout struct {
	spec   PageSpec
	title  string
	pages  []Page
	FinalY float64
}

// NewLayout starts a document whose pages all carry title.
func NewLayout(title string, spec PageSpec) *Layout {
	l := &Layout{spec: spec, title: title}
	l.newPage()
	return l
}

func (l *Layout) limit() float64 {
	return l.spec.Height - l.spec.MarginBottom
}

func (l *Layout) newPage() {
	l.pages = append(l.pages, Page{Number: len(l.pages) + 1, Title: l.title})
	l.FinalY = l.spec.MarginTop + l.spec.TitleHeight
}

func (l *Layout) current() *Page {
	return &l.pages[len(l.pages)-1]
}

// blockHead is the space taken by a heading plus the column header row.
func (l *Layout) blockHead() float64 {
	return l.spec.HeadingHeight + l.spec.RowHeight
}

// AddTable appends t below the cursor, breaking onto new pages as needed.
// Continuation blocks repeat the heading and column header.
func (l *Layout) AddTable(t Table) {
	// Keep the header with at least one row.
	if l.FinalY+l.blockHead()+l.spec.RowHeight > l.limit() && len(l.current().Blocks) > 0 {
		l.newPage()
	}
	block := l.openBlock(t, false)
	for _, row := range t.Rows {
		if l.FinalY+l.spec.RowHeight > l.limit() && len(block.Rows) > 0 {
			l.closeBlock(block)
			l.newPage()
			block = l.openBlock(t, true)
		}
		block.Rows = append(block.Rows, row)
		l.FinalY += l.spec.RowHeight
	}
	l.closeBlock(block)
	l.FinalY += l.spec.TableGap
}

func (l *Layout) openBlock(t Table, continued bool) *Block {
	b := &Block{Heading: t.Heading, Continued: continued, Columns: t.Columns, StartY: l.FinalY}
	l.FinalY += l.blockHead()
	return b
}

func (l *Layout) closeBlock(b *Block) {
	b.EndY = l.FinalY
	page := l.current()
	page.Blocks = append(page.Blocks, *b)
}

// Pages returns the laid-out pages.
func (l *Layout) Pages() []Page {
	return l.pages
}
