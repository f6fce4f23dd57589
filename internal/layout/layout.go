// Package layout provides the static keyboard-ergonomics tables: which
// finger and which physical row each character belongs to.
package layout

// Finger identifies one of the nine typing fingers, plus a sentinel for
// characters outside the table.
type Finger int

const (
	FingerOther Finger = iota
	LeftPinky
	LeftRing
	LeftMiddle
	LeftIndex
	Thumb
	RightIndex
	RightMiddle
	RightRing
	RightPinky
)

// Row identifies a physical keyboard row, plus a sentinel for characters
// outside the table.
type Row int

const (
	RowOther Row = iota
	RowTop
	RowHome
	RowBottom
)

var fingerNames = map[Finger]string{
	FingerOther: "Other",
	LeftPinky:   "L-Pinky",
	LeftRing:    "L-Ring",
	LeftMiddle:  "L-Middle",
	LeftIndex:   "L-Index",
	Thumb:       "Thumb",
	RightIndex:  "R-Index",
	RightMiddle: "R-Middle",
	RightRing:   "R-Ring",
	RightPinky:  "R-Pinky",
}

var rowNames = map[Row]string{
	RowOther:  "Other",
	RowTop:    "Top",
	RowHome:   "Home",
	RowBottom: "Bottom",
}

func (f Finger) String() string { return fingerNames[f] }

func (r Row) String() string { return rowNames[r] }

// Fingers lists all real fingers left to right, without the sentinel.
func Fingers() []Finger {
	return []Finger{
		LeftPinky, LeftRing, LeftMiddle, LeftIndex,
		Thumb,
		RightIndex, RightMiddle, RightRing, RightPinky,
	}
}

// Rows lists the real rows top to bottom, without the sentinel.
func Rows() []Row {
	return []Row{RowTop, RowHome, RowBottom}
}

type keyInfo struct {
	finger Finger
	row    Row
}

// qwerty is the standard US layout. Number keys share the top row with the
// letter row above home, matching how the aggregates group them.
var qwerty = buildQwerty()

func buildQwerty() map[rune]keyInfo {
	table := map[rune]keyInfo{}
	assign := func(row Row, chars string, finger Finger) {
		for _, r := range chars {
			table[r] = keyInfo{finger: finger, row: row}
		}
	}

	// Number row.
	assign(RowTop, "12", LeftPinky)
	assign(RowTop, "3", LeftRing)
	assign(RowTop, "4", LeftMiddle)
	assign(RowTop, "56", LeftIndex)
	assign(RowTop, "78", RightIndex)
	assign(RowTop, "9", RightMiddle)
	assign(RowTop, "0", RightRing)
	assign(RowTop, "-=", RightPinky)

	// Top letter row.
	assign(RowTop, "q", LeftPinky)
	assign(RowTop, "w", LeftRing)
	assign(RowTop, "e", LeftMiddle)
	assign(RowTop, "rt", LeftIndex)
	assign(RowTop, "yu", RightIndex)
	assign(RowTop, "i", RightMiddle)
	assign(RowTop, "o", RightRing)
	assign(RowTop, "p[]\\", RightPinky)

	// Home row.
	assign(RowHome, "a", LeftPinky)
	assign(RowHome, "s", LeftRing)
	assign(RowHome, "d", LeftMiddle)
	assign(RowHome, "fg", LeftIndex)
	assign(RowHome, "hj", RightIndex)
	assign(RowHome, "k", RightMiddle)
	assign(RowHome, "l", RightRing)
	assign(RowHome, ";'", RightPinky)

	// Bottom row.
	assign(RowBottom, "z", LeftPinky)
	assign(RowBottom, "x", LeftRing)
	assign(RowBottom, "c", LeftMiddle)
	assign(RowBottom, "vb", LeftIndex)
	assign(RowBottom, "nm", RightIndex)
	assign(RowBottom, ",", RightMiddle)
	assign(RowBottom, ".", RightRing)
	assign(RowBottom, "/", RightPinky)

	assign(RowBottom, " ", Thumb)
	return table
}

// Lookup maps a character to its finger and row. Uppercase letters and
// shifted symbols resolve through their unshifted key. Unmapped characters
// return the sentinels; callers route those to an "other" bucket instead
// of rejecting them.
func Lookup(r rune) (Finger, Row) {
	if info, ok := qwerty[r]; ok {
		return info.finger, info.row
	}
	if base, ok := unshift[r]; ok {
		if info, ok := qwerty[base]; ok {
			return info.finger, info.row
		}
	}
	if r >= 'A' && r <= 'Z' {
		if info, ok := qwerty[r+('a'-'A')]; ok {
			return info.finger, info.row
		}
	}
	return FingerOther, RowOther
}

// unshift maps shifted US-layout symbols back to the physical key.
var unshift = map[rune]rune{
	'!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0',
	'_': '-', '+': '=',
	'{': '[', '}': ']', '|': '\\',
	':': ';', '"': '\'',
	'<': ',', '>': '.', '?': '/',
	'~': '`',
}

// PhysicalRow is one row of the drawable keyboard with its left indent in
// key cells, used by the heat-map renderer.
type PhysicalRow struct {
	Keys   string
	Indent int
}

// PhysicalRows returns the drawable keyboard layout top to bottom.
func PhysicalRows() []PhysicalRow {
	return []PhysicalRow{
		{Keys: "1234567890-=", Indent: 0},
		{Keys: "qwertyuiop[]\\", Indent: 2},
		{Keys: "asdfghjkl;'", Indent: 3},
		{Keys: "zxcvbnm,./", Indent: 4},
		{Keys: " ", Indent: 5},
	}
}
