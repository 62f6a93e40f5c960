// Package netx contains small HTTP transfer helpers shared by the variant
// pipeline.
package netx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
)

// ProgressFunc receives the number of bytes written so far and the total
// expected (-1 when the server did not report a length).
type ProgressFunc func(written, total int64)

// DownloadToWriter streams the body of url into w, hashing it on the way
// through. It returns the lowercase hex SHA-256 of the written bytes and
// their count. progress may be nil.
func DownloadToWriter(ctx context.Context, client *http.Client, url string, w io.Writer, progress ProgressFunc) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	h := sha256.New()
	dst := io.MultiWriter(w, h)

	var written int64
	total := resp.ContentLength
	buf := make([]byte, 128*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return "", written, fmt.Errorf("write: %w", writeErr)
			}
			written += int64(n)
			if progress != nil {
				progress(written, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", written, fmt.Errorf("read body: %w", readErr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), written, nil
}
