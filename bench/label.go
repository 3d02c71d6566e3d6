package bench

import (
	"strings"
	"unicode/utf8"
)

// labelFormat holds the column widths of the result labels. Widths are
// computed once from every candidate value, before anything is timed, so a
// column keeps its width for the whole run.
type labelFormat struct {
	lb     *Labeler
	stmt   int   // 0 when the snippet is not a column
	widths []int // swept positional inputs, then swept keyword inputs
}

func newLabelFormat(lb *Labeler, sp space, stmts []stmt) labelFormat {
	f := labelFormat{lb: lb}
	if sp.multi {
		for _, s := range stmts {
			f.stmt = max(f.stmt, utf8.RuneCountInString(s.name))
		}
	}
	for _, a := range sp.args {
		if !a.swept {
			continue
		}
		w := 0
		for _, v := range a.values {
			w = max(w, utf8.RuneCountInString(lb.Describe(v)))
		}
		f.widths = append(f.widths, w)
	}
	for _, k := range sp.kws {
		if !k.swept {
			continue
		}
		w := 0
		for _, v := range k.values {
			w = max(w, utf8.RuneCountInString(keywordCell(lb, k.name, v)))
		}
		f.widths = append(f.widths, w)
	}
	return f
}

func keywordCell(lb *Labeler, name string, v any) string {
	return name + "=" + lb.Describe(v)
}

// format renders the label of c:
// "<snippet>: <positional values> <name=value ...>", every column padded to
// its width. Only swept inputs appear.
func (f labelFormat) format(sp space, stmts []stmt, c combination) string {
	var cells []string
	for i, a := range sp.args {
		if a.swept {
			cells = append(cells, f.lb.Describe(a.values[c.argIdx[i]]))
		}
	}
	for j, k := range sp.kws {
		if k.swept {
			cells = append(cells, keywordCell(f.lb, k.name, k.values[c.kwIdx[j]]))
		}
	}

	var b strings.Builder
	if sp.multi {
		b.WriteString(pad(stmts[c.stmt].name, f.stmt))
		if len(cells) == 0 {
			return b.String()
		}
		b.WriteString(": ")
	}
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(pad(cell, f.widths[i]))
	}
	return b.String()
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
