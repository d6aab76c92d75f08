package robox

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// DownloadFile streams url into destFolder and returns the written
// filename. The name comes from the URL path; when it has no extension,
// one is guessed from the content.
func (b *Browser) DownloadFile(ctx context.Context, rawurl, destFolder string) (string, error) {
	dest, err := expandDestination(destFolder)
	if err != nil {
		return "", err
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawurl)
	if err != nil {
		b.log.Error("download failed", zap.String("url", rawurl), zap.Error(err))
		return "", err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 400 {
		return "", &StatusError{URL: rawurl, Status: resp.StatusCode()}
	}
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		b.rememberOrigin(raw.Request.URL)
	}

	// Sniff enough of the body to guess an extension before streaming the
	// rest to disk.
	header := make([]byte, 3072)
	n, err := io.ReadFull(body, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	header = header[:n]

	filename := downloadFilename(rawurl, header)
	file, err := os.Create(filepath.Join(dest, filename))
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := file.Write(header); err != nil {
		return "", err
	}
	if _, err := io.Copy(file, body); err != nil {
		return "", err
	}

	b.metrics.IncDownloads()
	b.log.Debug("downloaded", zap.String("url", rawurl), zap.String("file", filename))
	return filename, nil
}

// downloadFilename derives a filename from the URL path, appending a
// content-sniffed extension when the path carries none.
func downloadFilename(rawurl string, header []byte) string {
	name := "download"
	if u, err := url.Parse(rawurl); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			name = base
		}
	}
	if filepath.Ext(name) != "" {
		return name
	}
	ext := mimetype.Detect(header).Extension()
	if ext == "" {
		return name
	}
	return strings.TrimRight(name, ".") + ext
}

func expandDestination(destFolder string) (string, error) {
	dest := destFolder
	if strings.HasPrefix(dest, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			dest = filepath.Join(home, strings.TrimPrefix(dest, "~"))
		}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("creating destination %s: %w", dest, err)
	}
	return dest, nil
}
