//go:build linux
// +build linux

package wifi

import (
	"context"

	"go.uber.org/zap"

	"github.com/tomiamao/wlansme/mlme"
)

// A Client drives a single station interface on behalf of an SME.
type Client struct {
	c *client
}

// Open resolves the station interface ifname and subscribes to its
// notifications.
func Open(ifname string, logger *zap.Logger) (*Client, error) {
	c, err := newClient(ifname, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		c: c,
	}, nil
}

// Close releases resources used by a Client.
func (c *Client) Close() error {
	return c.c.Close()
}

// Interface returns the interface driven by the Client.
func (c *Client) Interface() *Interface {
	return c.c.ifi
}

// Addr returns the hardware address of the interface.
func (c *Client) Addr() mlme.MacAddr {
	return c.c.addr
}

// Channels returns the enabled channels of the interface's PHY.
func (c *Client) Channels() ([]uint8, error) {
	return c.c.Channels()
}

// CheckExtFeature reports whether the PHY supports an nl80211 extended
// feature.
func (c *Client) CheckExtFeature(feature uint) (bool, error) {
	return c.c.CheckExtFeature(feature)
}

// Events delivers driver events until ctx is done. It must be called once.
func (c *Client) Events(ctx context.Context) <-chan mlme.Event {
	return c.c.Events(ctx)
}

// Do executes req. Events completed synchronously, including failures of
// the request itself, are returned rather than delivered on Events.
func (c *Client) Do(req mlme.Request) []mlme.Event {
	return c.c.Do(req)
}

// PollSignal returns a signal report for the associated BSS, if any.
func (c *Client) PollSignal() []mlme.Event {
	return c.c.PollSignal()
}
