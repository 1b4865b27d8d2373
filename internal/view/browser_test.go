package view

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFiles struct {
	state     files.State
	snapshots int
	deleted   []string
	saved     []string
}

func (f *fakeFiles) Snapshot() files.State {
	f.snapshots++
	return f.state
}

func (f *fakeFiles) Download(ctx context.Context, file files.FileRecord, sink files.Sink) error {
	f.saved = append(f.saved, file.Path)
	return nil
}

func (f *fakeFiles) Delete(ctx context.Context, file files.FileRecord) error {
	f.deleted = append(f.deleted, file.Path)
	return nil
}

func (f *fakeFiles) PublicURL(file files.FileRecord) string {
	return "https://cdn.example.com/uploads/" + file.Path
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) Copy(ctx context.Context, text string) error {
	c.text = text
	return c.err
}

var day = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func record(name string, size int64, typ string) files.FileRecord {
	return files.FileRecord{Name: name, Path: name, Size: size, Type: typ, CreatedAt: day}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" LIST ")
	require.NoError(t, err)
	assert.Equal(t, ModeList, m)

	m, err = ParseMode("grid")
	require.NoError(t, err)
	assert.Equal(t, ModeGrid, m)

	_, err = ParseMode("tiles")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	records := []files.FileRecord{record("Report.PDF", 1, ""), record("photo.png", 1, "")}

	assert.Equal(t, records[:1], Filter(records, "report"))
	assert.Equal(t, records, Filter(records, "  "))
	assert.Empty(t, Filter(records, "xyz"))
	assert.Empty(t, Filter(records, " report"))
	assert.Equal(t, records[:1], Filter(records, "t.pdf"))
}

func TestVisible_MemoizedByRevisionAndQuery(t *testing.T) {
	src := &fakeFiles{state: files.State{Revision: 1, Files: []files.FileRecord{record("a.txt", 1, ""), record("b.txt", 1, "")}}}
	b := NewBrowser(src, nil, nil, 0)

	first := b.Visible()
	assert.Len(t, first, 2)

	b.SetQuery("a")
	assert.Len(t, b.Visible(), 1)

	// same revision, different contents: memo wins
	src.state.Files = append(src.state.Files, record("aa.txt", 1, ""))
	assert.Len(t, b.Visible(), 1)

	src.state.Revision = 2
	assert.Len(t, b.Visible(), 2)
}

func TestNewBrowser_Defaults(t *testing.T) {
	b := NewBrowser(&fakeFiles{}, nil, nil, 0)
	assert.Equal(t, ModeGrid, b.Mode())
	assert.Equal(t, "", b.Query())
	assert.Equal(t, 4, b.columns)

	b.SetMode(ModeList)
	assert.Equal(t, ModeList, b.Mode())
}

func TestItems_Decorated(t *testing.T) {
	src := &fakeFiles{state: files.State{Files: []files.FileRecord{record("a.png", 1536, "image/png")}}}
	items := NewBrowser(src, nil, nil, 0).Items()

	require.Len(t, items, 1)
	assert.Equal(t, "1.5 KB", items[0].SizeText)
	assert.Equal(t, "Mar 15, 2024", items[0].DateText)
	assert.Equal(t, "image", string(items[0].Kind))
	assert.Equal(t, "a.png", items[0].Name)
}

func TestCopyLink(t *testing.T) {
	src := &fakeFiles{}
	clip := &fakeClipboard{}
	c := &notify.Collector{}
	b := NewBrowser(src, clip, c, 0)

	url, err := b.CopyLink(context.Background(), record("1-a b.txt", 1, ""))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/uploads/1-a b.txt", url)
	assert.Equal(t, url, clip.text)
	assert.Equal(t, []notify.Notification{notify.Success("", "Link copied to clipboard")}, c.Items())

	clip.err = errors.New("no display")
	_, err = b.CopyLink(context.Background(), record("x", 1, ""))
	assert.Error(t, err)
	assert.Len(t, c.Items(), 1)
}

func TestActionsDelegate(t *testing.T) {
	src := &fakeFiles{}
	b := NewBrowser(src, nil, nil, 0)

	require.NoError(t, b.Download(context.Background(), record("a", 1, ""), nil))
	require.NoError(t, b.Delete(context.Background(), record("b", 1, "")))

	assert.Equal(t, []string{"a"}, src.saved)
	assert.Equal(t, []string{"b"}, src.deleted)
}

func render(t *testing.T, b *Browser) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, b.Render(&buf))
	return buf.String()
}

func TestRender_States(t *testing.T) {
	src := &fakeFiles{state: files.State{Loading: true}}
	b := NewBrowser(src, nil, nil, 2)

	out := render(t, b)
	assert.Contains(t, out, "All Files (0)")
	assert.Contains(t, out, "Your Files")
	assert.Contains(t, out, "Loading files...")
	assert.NotContains(t, out, "No files yet")

	src.state.Loading = false
	assert.Contains(t, render(t, b), "No files yet")

	src.state = files.State{Revision: 1, Files: []files.FileRecord{
		record("Report.PDF", 2048, "application/pdf"),
		record("notes.txt", 0, "text/plain"),
		record("photo.png", 1048576, "image/png"),
	}}
	out = render(t, b)
	assert.Contains(t, out, "All Files (3)")
	assert.Contains(t, out, "[pdf] Report.PDF")
	assert.Contains(t, out, "1.0 MB")

	b.SetMode(ModeList)
	b.SetQuery("report")
	out = render(t, b)
	assert.Contains(t, out, "Search results")
	assert.Contains(t, out, "1 file found")
	assert.Contains(t, out, "Mar 15, 2024")
	assert.NotContains(t, out, "notes.txt")
	assert.Contains(t, out, "All Files (3)")
}

func TestRender_UploadPanel(t *testing.T) {
	src := &fakeFiles{state: files.State{Tasks: []files.UploadTask{
		{FileName: "a.txt", Progress: 100, Status: files.StatusCompleted},
		{FileName: "b.txt", Progress: 0, Status: files.StatusFailed},
	}}}
	out := render(t, NewBrowser(src, nil, nil, 0))

	assert.Contains(t, out, "Uploads")
	assert.Regexp(t, `a\.txt\s+100%\s+completed`, out)
	assert.Regexp(t, `b\.txt\s+0%\s+error`, out)
}

func TestFoundText(t *testing.T) {
	assert.Equal(t, "0 files found", FoundText(0))
	assert.Equal(t, "1 file found", FoundText(1))
	assert.Equal(t, "7 files found", FoundText(7))
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short", 10))
	assert.Equal(t, "abcdefg...", shorten("abcdefghijklmnop", 10))
}
