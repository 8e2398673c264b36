// Copyright (c) 2025 The Leafstake developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blockfrost

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

func (c *Client) httpRequest(ctx context.Context, method, url, contentType string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, "error creating request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.projectID != "" {
		req.Header.Set("project_id", c.projectID)
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "error performing request")
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading response body")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return responseBody, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	}
	return nil, errors.Wrapf(ErrNot200Status, "http error - Status Code %d - %s", resp.StatusCode, responseBody)
}

func (c *Client) httpGET(ctx context.Context, url string) ([]byte, error) {
	return c.httpRequest(ctx, http.MethodGet, url, "", nil)
}
