package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/filedeck/internal/files"
	"github.com/dmitrijs2005/filedeck/internal/view"
)

var errUsage = errors.New("usage")

func usage(format string) error {
	return fmt.Errorf("%w: %s", errUsage, format)
}

func (a *App) render() error {
	return a.browser.Render(a.out)
}

func (a *App) List(ctx context.Context, _ []string) error {
	return a.render()
}

func (a *App) View(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("view grid|list")
	}
	m, err := view.ParseMode(args[0])
	if err != nil {
		return err
	}
	a.browser.SetMode(m)
	return a.render()
}

// Search filters the listing; without arguments the filter is cleared.
func (a *App) Search(ctx context.Context, args []string) error {
	a.browser.SetQuery(strings.Join(args, " "))
	return a.render()
}

func (a *App) Refresh(ctx context.Context, _ []string) error {
	if err := a.files.Refresh(ctx); err != nil {
		return err
	}
	return a.render()
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("upload <paths...>")
	}

	uploads := make([]files.Upload, 0, len(args))
	for _, p := range args {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		defer f.Close()

		st, err := f.Stat()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if st.IsDir() {
			return fmt.Errorf("%s is a directory", p)
		}
		uploads = append(uploads, files.Upload{Name: filepath.Base(p), Size: st.Size(), Body: f})
	}

	tasks, err := a.files.Upload(ctx, uploads)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		fmt.Fprintf(a.out, "  %s\t%d%%\t%s\n", t.FileName, t.Progress, t.Status)
	}
	return nil
}

// pick resolves a 1-based position in the visible listing.
func (a *App) pick(args []string, cmd string) (files.FileRecord, error) {
	if len(args) < 1 {
		return files.FileRecord{}, usage(cmd + " <n>")
	}
	n, err := strconv.Atoi(args[0])
	visible := a.browser.Visible()
	if err != nil || n < 1 || n > len(visible) {
		return files.FileRecord{}, fmt.Errorf("%w: no file #%s (1-%d)", files.ErrNotFound, args[0], len(visible))
	}
	return visible[n-1], nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	f, err := a.pick(args, "download")
	if err != nil {
		return err
	}
	if err := a.browser.Download(ctx, f, a.sink); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved to", a.sink.last)
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	f, err := a.pick(args, "rm")
	if err != nil {
		return err
	}
	if err := a.browser.Delete(ctx, f); err != nil {
		return err
	}
	return a.render()
}

func (a *App) Link(ctx context.Context, args []string) error {
	f, err := a.pick(args, "link")
	if err != nil {
		return err
	}
	url, err := a.browser.CopyLink(ctx, f)
	if url != "" {
		fmt.Fprintln(a.out, url)
	}
	return err
}

// Signed prints a time-limited private link: signed <n> [ttl].
func (a *App) Signed(ctx context.Context, args []string) error {
	f, err := a.pick(args, "signed")
	if err != nil {
		return err
	}
	ttl := a.config.SignedURLValidity
	if len(args) > 1 {
		if ttl, err = time.ParseDuration(args[1]); err != nil || ttl <= 0 {
			return usage("signed <n> [ttl, e.g. 1h]")
		}
	}
	url, err := a.files.SignedURL(ctx, f, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, url)
	fmt.Fprintf(a.out, "Valid until %s\n", a.now().Add(ttl).Format(time.RFC1123))
	return nil
}
