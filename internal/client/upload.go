package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxUploadBytes = 25 << 20

// UploadFiles sends local files to the upload endpoint and returns their
// URLs in input order. Entries that are already http(s) URLs are passed
// through without uploading.
func (c *Client) UploadFiles(ctx context.Context, paths []string) ([]string, error) {
	out := make([]string, len(paths))
	var pending []int
	for i, raw := range paths {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			return nil, fmt.Errorf("attachment %d is empty", i+1)
		}
		if IsRemoteAttachment(entry) {
			out[i] = entry
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return out, nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, i := range pending {
		if err := addFilePart(writer, strings.TrimSpace(paths[i])); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var resp UploadResponse
	if err := c.do(req, &resp, c.http); err != nil {
		return nil, err
	}
	if len(resp.URLs) != len(pending) {
		return nil, fmt.Errorf("upload returned %d urls for %d files", len(resp.URLs), len(pending))
	}
	for n, i := range pending {
		out[i] = resp.URLs[n]
	}
	return out, nil
}

func IsRemoteAttachment(entry string) bool {
	lower := strings.ToLower(strings.TrimSpace(entry))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func addFilePart(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("attachment %s is a directory", path)
	}
	if info.Size() > maxUploadBytes {
		return fmt.Errorf("attachment %s exceeds %d bytes", filepath.Base(path), maxUploadBytes)
	}
	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}
