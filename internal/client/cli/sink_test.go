package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	assert.Equal(t, "b.txt", safeName("a/b.txt"))
	assert.Equal(t, "passwd", safeName("../../etc/passwd"))
	assert.Equal(t, "x.txt", safeName(`dir\x.txt`))
	assert.Equal(t, "download", safeName(".."))
	assert.Equal(t, "download", safeName(""))
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir()
	s := &dirSink{dir: dir}

	require.NoError(t, s.Save("../report.txt", "text/plain", strings.NewReader("hello")))

	want := filepath.Join(dir, "report.txt")
	assert.Equal(t, want, s.last)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Save("report.txt", "text/plain", strings.NewReader("again")))
	assert.Equal(t, filepath.Join(dir, "report (1).txt"), s.last)
	data, err = os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestOSC52Clipboard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, osc52Clipboard{w: &buf}.Copy(context.Background(), "hi"))
	assert.Equal(t, "\x1b]52;c;aGk=\a", buf.String())
}
