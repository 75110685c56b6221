// {{{ Copyright (c) The WebSDR-Transceiver Authors, 2026
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package socket

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	websdr "github.com/Biblink02/WebSDR-Transceiver"
	"github.com/Biblink02/WebSDR-Transceiver/tuner"
)

// writeTimeout bounds a command write when the context has no deadline.
const writeTimeout = 5 * time.Second

// Conn is a websocket connection to the backend. It decodes inbound
// messages into Events and implements websdr.CommandSender. It does not
// reconnect.
type Conn struct {
	ws  *websocket.Conn
	log *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the backend at url.
func Dial(ctx context.Context, url string, log *zap.Logger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	log.Info("connected", zap.String("url", url))
	return &Conn{ws: ws, log: log}, nil
}

// Send writes cmd as a text message.
func (c *Conn) Send(ctx context.Context, cmd tuner.Command) error {
	msg, err := EncodeCommand(cmd)
	if err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, msg)
}

// Run reads messages until the connection fails or ctx is done, handing
// each decoded Event to deliver. deliver must not block. Run reports
// ConnectionChanged on entry and on exit; messages that can not be
// decoded are dropped.
func (c *Conn) Run(ctx context.Context, deliver func(websdr.Event)) error {
	deliver(websdr.ConnectionChanged{Connected: true})
	defer deliver(websdr.ConnectionChanged{Connected: false})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	for {
		kind, msg, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil ||
				errors.Is(err, net.ErrClosed) ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info("connection closed")
				return nil
			}
			c.log.Warn("read failed", zap.Error(err))
			return err
		}

		var ev websdr.Event
		switch kind {
		case websocket.TextMessage:
			ev, err = DecodeText(msg)
		case websocket.BinaryMessage:
			ev, err = DecodeBinary(msg)
		default:
			continue
		}
		if err != nil {
			c.log.Debug("dropping message", zap.Int("bytes", len(msg)), zap.Error(err))
			continue
		}
		deliver(ev)
	}
}

// Close sends a close frame and closes the connection. Calling it again
// returns the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// vim: foldmethod=marker
