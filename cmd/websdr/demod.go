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
	"os"

	"github.com/spf13/cobra"
	"hz.tools/pulseaudio"
	"hz.tools/rfcap"
	"hz.tools/sdr"
	"hz.tools/sdr/stream"

	"github.com/Biblink02/WebSDR-Transceiver/demod"
)

var demodCmd = &cobra.Command{
	Use:   "demod",
	Short: "demodulate an rfcap capture from stdin",
	Long:  `Demodulate an rfcap IQ capture straight to pulseaudio, without the receiver pipeline`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := receiverConfig(cmd, nil)
		if err != nil {
			return err
		}
		gain, err := cmd.Flags().GetFloat32("gain")
		if err != nil {
			return err
		}
		sinkName, err := cmd.Flags().GetString("sink-name")
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

		frequency := cfg.Tuner.Frequency
		if frequency == 0 {
			frequency = cfg.CenterFrequency
		}
		audio, err := demod.NewReader(reader, demod.Config{
			AudioRate: cfg.AudioRate,
			Offset:    frequency - cfg.CenterFrequency,
			Bandwidth: cfg.Tuner.Bandwidth,
			Filter:    cfg.Filter,
		})
		if err != nil {
			return err
		}

		speaker, err := pulseaudio.NewWriter(pulseaudio.Config{
			Format:     pulseaudio.SampleFormatFloat32NE,
			Rate:       audio.SampleRate(),
			AppName:    "rf",
			StreamName: "websdr",
			Channels:   1,
			SinkName:   sinkName,
		})
		if err != nil {
			return err
		}

		buf := make([]float32, 1024*8)
		for {
			i, err := audio.Read(buf)
			if err != nil {
				return err
			}
			for j := range buf[:i] {
				buf[j] *= gain
			}
			if err := speaker.Write(buf[:i]); err != nil {
				return err
			}
		}
	},
}

func init() {
	demodCmd.Flags().Float32("gain", 1, "amount of gain on the audio")
	rootCmd.AddCommand(demodCmd)
}

// vim: foldmethod=marker
