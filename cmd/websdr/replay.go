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
	"errors"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"hz.tools/fftw"
	"hz.tools/rfcap"
	"hz.tools/sdr"
	"hz.tools/sdr/stream"

	websdr "github.com/Biblink02/WebSDR-Transceiver"
	"github.com/Biblink02/WebSDR-Transceiver/tuner"
)

// loopback stands in for a backend with a single worker that is always
// free.
type loopback struct {
	deliver func(websdr.Event)
}

func (l loopback) Send(ctx context.Context, cmd tuner.Command) error {
	switch cmd.(type) {
	case tuner.RequestWorker:
		l.deliver(websdr.WorkerAssigned{Worker: "local"})
	case tuner.ReleaseWorker:
		l.deliver(websdr.WorkerReleased{})
	}
	return nil
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "replay an rfcap capture from stdin",
	Long:  `Run an rfcap IQ capture through the receiver, as if a backend sent it as IQ frames`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		block, err := cmd.Flags().GetInt("block")
		if err != nil {
			return err
		}

		reader, _, err := rfcap.Reader(os.Stdin)
		if err != nil {
			return err
		}
		reader, err = stream.ConvertReader(reader, sdr.SampleFormatC64)
		if err != nil {
			return err
		}

		cfg, err := receiverConfig(cmd, log)
		if err != nil {
			return err
		}
		cfg.SampleRate = reader.SampleRate()
		cfg.AnalyzeIQ = true
		cfg.Planner = fftw.Plan

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		lb := &loopback{}
		rcv, err := websdr.NewReceiver(cfg, lb)
		if err != nil {
			return err
		}
		lb.deliver = rcv.Deliver
		if err := rcv.Start(ctx); err != nil {
			return err
		}
		rcv.Deliver(websdr.ConnectionChanged{Connected: true})
		rcv.ToggleListening()

		go func() {
			if err := pace(ctx, reader, block, rcv.Deliver); err != nil {
				log.Warn("replay stopped", zap.Error(err))
			}
			// Let the tail of the capture play out.
			time.Sleep(time.Second)
			rcv.Stop()
		}()
		go func() {
			<-ctx.Done()
			rcv.Stop()
		}()

		return consume(cmd, rcv, log)
	},
}

// pace reads blocks of IQ from reader and delivers them as IQ frames at the
// rate they were captured.
func pace(ctx context.Context, reader sdr.Reader, block int, deliver func(websdr.Event)) error {
	interval := time.Duration(float64(block) / float64(reader.SampleRate()) * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		buf := make(sdr.SamplesC64, block)
		i, err := sdr.ReadFull(reader, buf)
		if i > 0 {
			deliver(websdr.IQFrame{Samples: buf[:i]})
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func init() {
	replayCmd.Flags().Int("block", 1<<14, "IQ samples per frame")
	rootCmd.AddCommand(replayCmd)
}

// vim: foldmethod=marker
