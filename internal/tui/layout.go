package tui

// listShare is the percentage of the terminal width given to the list.
const listShare = 40

// layout holds the content sizes of the two panels. Each panel adds a border
// and padding around its content.
type layout struct {
	listW    int
	previewW int
	panelH   int
}

func (m model) layout() layout {
	l := layout{listW: 40, previewW: 60, panelH: 20}
	if m.width > 0 {
		l.listW = max(m.width*listShare/100-4, 20)
		l.previewW = max(m.width*(100-listShare)/100-4, 20)
	}
	if m.height > 0 {
		// input row, status bar and the panel borders
		l.panelH = max(m.height-6, 5)
	}
	return l
}

type region int

const (
	regionNone region = iota
	regionList
	regionPreview
)

// regionAt maps a terminal cell to the panel under it and, inside the list,
// the index of the result drawn there.
func (m model) regionAt(x, y int) (region, int) {
	l := m.layout()
	row := y - 2 // input row and top border
	if row < 0 || row >= l.panelH {
		return regionNone, -1
	}
	switch {
	case x >= 1 && x <= l.listW:
		return regionList, m.listOffset + row/linesPerItem
	case x > l.listW+2:
		return regionPreview, -1
	}
	return regionNone, -1
}
