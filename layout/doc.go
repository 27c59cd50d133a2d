// Package layout positions the words of a string on wrapped, aligned lines.
//
// Layout walks the text once with a pen position, applying pair kerning and
// advance widths from a [FontMetrics]. Words are runs of non-space
// characters. A word that would cross the maximum width is moved to the
// next line as a whole; it is never split, so a word wider than the limit
// simply overflows. Each line is re-aligned once it is complete.
//
// Example:
//
//	words := layout.Layout("Hello, world", face, layout.Options{
//	    Size:     24,
//	    MaxWidth: 200,
//	    Align:    layout.AlignCenter,
//	})
//	for _, w := range words {
//	    fmt.Println(w.Text, w.Origin, w.Size)
//	}
package layout
