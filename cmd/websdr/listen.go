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

package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	websdr "github.com/Biblink02/WebSDR-Transceiver"
	"github.com/Biblink02/WebSDR-Transceiver/internal/socket"
	"github.com/Biblink02/WebSDR-Transceiver/tuner"
)

var listenCmd = &cobra.Command{
	Use:   "listen <ws-url>",
	Short: "listen to a remote backend",
	Long:  `Connect to a web sdr backend, request an audio worker and play it`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		cfg, err := receiverConfig(cmd, log)
		if err != nil {
			return err
		}
		request, err := cmd.Flags().GetBool("request")
		if err != nil {
			return err
		}

		interrupt, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		conn, err := socket.Dial(ctx, args[0], log.Named("socket"))
		if err != nil {
			return err
		}
		defer conn.Close()

		rcv, err := websdr.NewReceiver(cfg, conn)
		if err != nil {
			return err
		}
		if err := rcv.Start(ctx); err != nil {
			return err
		}

		go func() {
			if err := conn.Run(ctx, rcv.Deliver); err != nil {
				log.Warn("connection lost", zap.Error(err))
			}
			cancel()
		}()
		go func() {
			select {
			case <-interrupt.Done():
				release(rcv)
			case <-ctx.Done():
			}
			cancel()
			rcv.Stop()
		}()

		if request {
			rcv.ToggleListening()
		}
		return consume(cmd, rcv, log)
	},
}

// release gives the worker back, if one is held, and waits a moment for
// the command to go out.
func release(rcv *websdr.Receiver) {
	if rcv.Status().Session.State != tuner.Listening {
		return
	}
	rcv.ToggleListening()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if rcv.Status().Session.State != tuner.Listening {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func init() {
	listenCmd.Flags().Bool("request", true, "request an audio worker on connect")
	rootCmd.AddCommand(listenCmd)
}

// vim: foldmethod=marker
