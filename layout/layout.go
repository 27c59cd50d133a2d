package layout

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const unknownStr = "Unknown"

// Alignment specifies horizontal alignment of a line within MaxWidth.
type Alignment int

const (
	// AlignLeft aligns lines to the origin (default).
	AlignLeft Alignment = iota
	// AlignCenter centers lines within MaxWidth.
	AlignCenter
	// AlignRight aligns lines to the right edge of MaxWidth.
	AlignRight
)

// String returns the string representation of the alignment.
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "Left"
	case AlignCenter:
		return "Center"
	case AlignRight:
		return "Right"
	default:
		return unknownStr
	}
}

// Vec2 is a 2D vector in pixels.
type Vec2 struct {
	X, Y float32
}

// Options configures Layout.
type Options struct {
	// Size is the font scale in pixels per em.
	Size float32

	// Origin is the top-left corner of the first line.
	Origin Vec2

	// MaxWidth is the line width at which words wrap, measured from
	// Origin. If 0 or negative, lines only break at '\n' and
	// alignment has no effect.
	MaxWidth float32

	// Align is the horizontal alignment of each line within MaxWidth.
	Align Alignment

	// Normalize converts the text to Unicode NFC before layout, so that
	// combining sequences use the precomposed characters fonts provide.
	Normalize bool
}

// WordPos is a positioned word.
type WordPos struct {
	// Text is the word, without surrounding whitespace.
	Text string

	// Start is the byte offset of Text in the laid out string, after
	// line ending and NFC normalization.
	Start int

	// Origin is the top-left corner of the word.
	Origin Vec2

	// Size is the advance width of the word and the font height.
	Size Vec2
}

// Prepare returns text as Layout sees it: "\r\n" and "\r" become "\n" and,
// if opts.Normalize is set, the text is converted to NFC. WordPos.Start
// offsets index into this string.
func Prepare(text string, opts Options) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if opts.Normalize {
		text = norm.NFC.String(text)
	}
	return text
}

// Layout positions the words of text. Whitespace separates words and is not
// returned; '\n' starts a new line, so consecutive newlines leave empty
// lines.
func Layout(text string, m FontMetrics, opts Options) []WordPos {
	text = Prepare(text, opts)
	if text == "" || m == nil {
		return nil
	}

	vm := m.VMetrics(opts.Size)
	p := pen{
		opts:       opts,
		x:          opts.Origin.X,
		y:          opts.Origin.Y,
		lineHeight: vm.LineHeight(),
		height:     vm.Height(),
	}

	var (
		prev    rune
		hasPrev bool
	)
	for i, r := range text {
		if hasPrev {
			p.x += m.Kerning(prev, r, opts.Size)
		}
		prev, hasPrev = r, true

		if unicode.IsSpace(r) {
			p.closeWord(text, i)
			if r == '\n' {
				p.newline()
				hasPrev = false
				continue
			}
			p.x += m.Advance(r, opts.Size)
			continue
		}

		if !p.inWord {
			p.inWord = true
			p.wordStart = i
			p.wordOrigin = Vec2{p.x, p.y}
		}
		p.x += m.Advance(r, opts.Size)
		p.wrap()
	}
	p.closeWord(text, len(text))
	p.realign()
	return p.words
}

// pen is the layout cursor.
type pen struct {
	opts Options
	x, y float32

	lineHeight float32
	height     float32

	words     []WordPos
	lineStart int // index of the first word on the current line

	inWord     bool
	wordStart  int
	wordOrigin Vec2
}

func (p *pen) closeWord(text string, end int) {
	if !p.inWord {
		return
	}
	p.words = append(p.words, WordPos{
		Text:   text[p.wordStart:end],
		Start:  p.wordStart,
		Origin: p.wordOrigin,
		Size:   Vec2{p.x - p.wordOrigin.X, p.height},
	})
	p.inWord = false
}

func (p *pen) newline() {
	p.realign()
	p.x = p.opts.Origin.X
	p.y += p.lineHeight
}

// wrap moves the open word to a new line when it crosses MaxWidth. The first
// word of a line stays put.
func (p *pen) wrap() {
	if p.opts.MaxWidth <= 0 || p.x-p.opts.Origin.X <= p.opts.MaxWidth {
		return
	}
	if len(p.words) == p.lineStart {
		return
	}
	p.realign()
	p.y += p.lineHeight
	p.x = p.opts.Origin.X + (p.x - p.wordOrigin.X)
	p.wordOrigin = Vec2{p.opts.Origin.X, p.y}
}

// realign aligns the words of the current line and starts a new one.
func (p *pen) realign() {
	line := p.words[p.lineStart:]
	p.lineStart = len(p.words)
	if len(line) == 0 || p.opts.MaxWidth <= 0 {
		return
	}

	first, last := line[0], line[len(line)-1]
	width := last.Origin.X + last.Size.X - first.Origin.X

	var shift float32
	switch p.opts.Align {
	case AlignCenter:
		shift = (p.opts.MaxWidth - width) / 2
	case AlignRight:
		shift = p.opts.MaxWidth - width
	default:
		return
	}
	// A line wider than MaxWidth gets a negative shift.
	for i := range line {
		line[i].Origin.X += shift
	}
}

// Bounds returns the smallest box containing all words.
func Bounds(words []WordPos) (lo, hi Vec2) {
	for i, w := range words {
		end := Vec2{w.Origin.X + w.Size.X, w.Origin.Y + w.Size.Y}
		if i == 0 {
			lo, hi = w.Origin, end
			continue
		}
		lo = Vec2{min(lo.X, w.Origin.X), min(lo.Y, w.Origin.Y)}
		hi = Vec2{max(hi.X, end.X), max(hi.Y, end.Y)}
	}
	return lo, hi
}

// Lines groups words by line. Words must come from a single Layout call.
func Lines(words []WordPos) [][]WordPos {
	var lines [][]WordPos
	for i := 0; i < len(words); {
		j := i + 1
		for j < len(words) && words[j].Origin.Y == words[i].Origin.Y {
			j++
		}
		lines = append(lines, words[i:j])
		i = j
	}
	return lines
}
