package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/filedeck/internal/files"
)

const (
	loadingText    = "Loading files..."
	emptyTitle     = "No files yet"
	emptyHint      = "Upload your first file with the upload command."
	headerAll      = "Your Files"
	headerSearch   = "Search results"
	gridNameLength = 24
)

// FoundText reports how many records matched a search.
func FoundText(n int) string {
	if n == 1 {
		return "1 file found"
	}
	return fmt.Sprintf("%d files found", n)
}

// Render writes the sidebar summary, upload panel and file area to w.
func (b *Browser) Render(w io.Writer) error {
	visible, state := b.visible()
	mode, query := b.Mode(), b.Query()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "All Files (%d)\n", len(state.Files))
	renderTasks(tw, state.Tasks)
	fmt.Fprintln(tw)

	if query != "" {
		fmt.Fprintf(tw, "%s\t%s\n", headerSearch, FoundText(len(visible)))
	} else {
		fmt.Fprintln(tw, headerAll)
	}

	switch {
	case state.Loading:
		fmt.Fprintln(tw, loadingText)
	case len(visible) == 0:
		fmt.Fprintln(tw, emptyTitle)
		fmt.Fprintln(tw, emptyHint)
	case mode == ModeList:
		renderList(tw, visible)
	default:
		renderGrid(tw, visible, b.columns)
	}

	return tw.Flush()
}

func renderTasks(w io.Writer, tasks []files.UploadTask) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintln(w, "Uploads")
	for _, t := range tasks {
		fmt.Fprintf(w, "  %s\t%d%%\t%s\n", t.FileName, t.Progress, t.Status)
	}
}

func renderList(w io.Writer, records []files.FileRecord) {
	for i, f := range records {
		it := NewItem(f)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, it.Kind.Glyph(), it.Name, it.SizeText, it.DateText)
	}
}

func renderGrid(w io.Writer, records []files.FileRecord, columns int) {
	for start := 0; start < len(records); start += columns {
		end := min(start+columns, len(records))

		var names, sizes []string
		for i := start; i < end; i++ {
			it := NewItem(records[i])
			names = append(names, fmt.Sprintf("%d %s %s", i+1, it.Kind.Glyph(), shorten(it.Name, gridNameLength)))
			sizes = append(sizes, "  "+it.SizeText)
		}
		fmt.Fprintln(w, strings.Join(names, "\t")+"\t")
		fmt.Fprintln(w, strings.Join(sizes, "\t")+"\t")
	}
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
