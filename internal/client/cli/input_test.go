package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("  hello world \n"), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name: ", out.String())
}

func TestGetSimpleText_EOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name", &out)
	assert.ErrorIs(t, err, io.EOF)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out, "Password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&out, "Password")
	assert.Error(t, err)
}

func TestArgOrPrompt(t *testing.T) {
	var out bytes.Buffer
	got, err := argOrPrompt(rdr("typed\n"), &out, []string{"a", "b"}, "Q")
	require.NoError(t, err)
	assert.Equal(t, "a b", got)
	assert.Empty(t, out.String())

	got, err = argOrPrompt(rdr("typed\n"), &out, nil, "Q")
	require.NoError(t, err)
	assert.Equal(t, "typed", got)
}

func TestPromptDefault(t *testing.T) {
	var out bytes.Buffer
	got, err := promptDefault(rdr("\n"), &out, "Username", "jane42")
	require.NoError(t, err)
	assert.Equal(t, "jane42", got)
	assert.Equal(t, "Username [jane42]: ", out.String())

	out.Reset()
	got, err = promptDefault(rdr("mine\n"), &out, "Username", "")
	require.NoError(t, err)
	assert.Equal(t, "mine", got)
	assert.Equal(t, "Username: ", out.String())
}

func TestNewPassword(t *testing.T) {
	stubPasswords(t, "one111", "two222")
	var out bytes.Buffer
	pw, again, err := newPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "one111", pw)
	assert.Equal(t, "two222", again)
}
