package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// listFilter is the "/" fuzzy filter shared by the model and thread lists.
// indices point into the unfiltered list; nil means everything is shown.
type listFilter struct {
	active  bool
	input   textinput.Model
	indices []int
}

func newListFilter() listFilter {
	input := textinput.New()
	input.Prompt = "Filter: "
	input.CharLimit = 64
	return listFilter{input: input}
}

func (f *listFilter) open(targets []string) tea.Cmd {
	f.active = true
	f.input.SetValue("")
	f.apply(targets)
	return f.input.Focus()
}

func (f *listFilter) close() {
	f.active = false
	f.input.Blur()
	f.input.SetValue("")
	f.indices = nil
}

// update feeds a key to the input and refilters.
func (f *listFilter) update(msg tea.Msg, targets []string) tea.Cmd {
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	f.apply(targets)
	return cmd
}

func (f *listFilter) apply(targets []string) {
	value := f.input.Value()
	if value == "" {
		f.indices = nil
		return
	}
	matches := fuzzy.Find(value, targets)
	f.indices = make([]int, len(matches))
	for i, match := range matches {
		f.indices[i] = match.Index
	}
}

// visible returns the indices of the rows to show, in display order.
func (f listFilter) visible(n int) []int {
	if f.indices != nil {
		return f.indices
	}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	return all
}

func clampIndex(idx, n int) int {
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// scrollWindow returns the [start, end) slice of n rows that keeps selected
// visible in maxLines.
func scrollWindow(selected, n, maxLines int) (int, int) {
	if maxLines < 1 {
		maxLines = 1
	}
	if n <= maxLines {
		return 0, n
	}
	switch {
	case selected < maxLines/2:
		return 0, maxLines
	case selected >= n-maxLines/2:
		return n - maxLines, n
	default:
		start := selected - maxLines/2
		return start, start + maxLines
	}
}
