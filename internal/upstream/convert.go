package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

type uploadedStatement struct {
	UUID string `json:"uuid"`
}

// Upload sends the statement as a multipart request and returns the artifact
// id assigned by the upstream. A response without the expected identifier
// shape fails with ErrUploadFailed.
func (c *Client) Upload(ctx context.Context, token string, file io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, filename))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("upload: create multipart: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("upload: read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload: close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/BankStatement", &buf)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload: unexpected status %d", resp.StatusCode)
	}

	var out []uploadedStatement
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("upload: decode response: %w", err)
	}
	if len(out) == 0 || out[0].UUID == "" {
		return "", ErrUploadFailed
	}

	c.logger.Info("statement uploaded", "artifact_id", out[0].UUID)
	return out[0].UUID, nil
}

// PollConvert requests the converted artifact at a fixed interval until it
// is ready or the deadline elapses. A 400-class status means "not ready
// yet"; transport errors are logged and polling continues; any other error
// status aborts immediately. The returned bytes are the artifact as-is.
func (c *Client) PollConvert(ctx context.Context, token, artifactID string) ([]byte, error) {
	attempts := int(c.pollDeadline / c.pollInterval)
	for attempt := 1; attempt <= attempts; attempt++ {
		data, retry, err := c.convertOnce(ctx, token, artifactID)
		if err == nil {
			c.logger.Info("conversion succeeded", "artifact_id", artifactID, "attempt", attempt)
			return data, nil
		}
		if !retry {
			return nil, err
		}
		c.logger.Info("artifact not ready",
			"artifact_id", artifactID,
			"attempt", attempt,
			"reason", err,
		)
		if serr := c.sleep(ctx, c.pollInterval); serr != nil {
			return nil, serr
		}
	}
	return nil, ErrConversionTimeout
}

// convertOnce issues one conversion request. retry reports whether the
// failure is a not-ready condition worth polling past.
func (c *Client) convertOnce(ctx context.Context, token, artifactID string) (data []byte, retry bool, err error) {
	url := c.baseURL + "/BankStatement/convert?format=CSV"
	payload := fmt.Sprintf(`["%s"]`, artifactID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("convert: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept", "text/csv,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("convert: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, fmt.Errorf("convert: read artifact: %w", err)
		}
		return body, false, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, true, fmt.Errorf("convert: artifact not ready (status %d)", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("convert: unexpected status %d", resp.StatusCode)
	}
}
