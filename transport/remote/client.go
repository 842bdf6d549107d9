// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package remote carries transport requests over HTTP.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/lsd/lsd"
	"github.com/vechain/lsd/transport"
)

const (
	contentType     = "application/octet-stream"
	maxResponseSize = 1 << 20
)

// Error is a request the remote end answered with a non 200 status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote error - Status Code %d - %s", e.Status, e.Message)
}

// Client is a transport.Transport posting requests to a provider server.
type Client struct {
	url string
	c   *http.Client
}

// New creates a client for the server at url. The timeout bounds each request, zero means none.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		url: strings.TrimRight(url, "/"),
		c:   &http.Client{Timeout: timeout},
	}
}

// Send implements transport.Transport.
func (c *Client) Send(ctx context.Context, provider lsd.Address, op transport.Op, payload []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/providers/%s/%s", c.url, provider, op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "perform request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}
