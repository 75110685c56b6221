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
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"hz.tools/pulseaudio"
	"hz.tools/rf"

	websdr "github.com/Biblink02/WebSDR-Transceiver"
	"github.com/Biblink02/WebSDR-Transceiver/demod"
	"github.com/Biblink02/WebSDR-Transceiver/jitter"
	"github.com/Biblink02/WebSDR-Transceiver/waterfall"
)

var rootCmd = &cobra.Command{
	Use:          "websdr",
	Short:        "web sdr receiver",
	Long:         `Listen to a shared web sdr backend, or replay a local IQ capture`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Bool("verbose", false, "log at debug level, in a human readable format")
	flags.String("center", "739.675MHz", "center frequency of the IQ stream")
	flags.String("frequency", "", "frequency to tune to (default: the center frequency)")
	flags.String("bandwidth", "15KHz", "channel bandwidth")
	flags.Uint("audio-rate", 48000, "audio sample rate")
	flags.String("filter", "biquad", "channel filter [biquad|fir]")
	flags.String("playback", "scheduled", "playback strategy [scheduled|immediate]")
	flags.Int("volume", 100, "volume, 0 to 100")
	flags.String("palette", waterfall.DefaultPalette, "waterfall palette")
	flags.String("snapshot", "", "write the last waterfall bitmap to this PNG file on exit")
	flags.String("sink-name", "", "pulseaudio sink name")
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func getHz(cmd *cobra.Command, name string) (rf.Hz, error) {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	return rf.ParseHz(s)
}

// receiverConfig maps the persistent flags onto a receiver Config.
func receiverConfig(cmd *cobra.Command, log *zap.Logger) (websdr.Config, error) {
	cfg := websdr.DefaultConfig()
	cfg.Logger = log

	var err error
	if cfg.CenterFrequency, err = getHz(cmd, "center"); err != nil {
		return cfg, err
	}
	if cfg.Tuner.Frequency, err = getHz(cmd, "frequency"); err != nil {
		return cfg, err
	}
	if cfg.Tuner.Bandwidth, err = getHz(cmd, "bandwidth"); err != nil {
		return cfg, err
	}
	if cfg.AudioRate, err = cmd.Flags().GetUint("audio-rate"); err != nil {
		return cfg, err
	}
	if cfg.Tuner.Volume, err = cmd.Flags().GetInt("volume"); err != nil {
		return cfg, err
	}

	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		return cfg, err
	}
	if cfg.Filter, err = demod.ParseFilterKind(filter); err != nil {
		return cfg, err
	}

	playback, err := cmd.Flags().GetString("playback")
	if err != nil {
		return cfg, err
	}
	if cfg.Playback, err = jitter.ParseStrategy(playback); err != nil {
		return cfg, err
	}

	palette, err := cmd.Flags().GetString("palette")
	if err != nil {
		return cfg, err
	}
	if _, ok := waterfall.PaletteByName(palette); !ok {
		return cfg, fmt.Errorf("%w: unknown palette %q", waterfall.ErrPalette, palette)
	}
	cfg.Waterfall.Palette = palette
	return cfg, nil
}

// consume drains the receiver outputs until they close: audio goes to
// pulseaudio, notices to the log, and the last bitmap optionally to a PNG.
func consume(cmd *cobra.Command, rcv *websdr.Receiver, log *zap.Logger) error {
	sinkName, err := cmd.Flags().GetString("sink-name")
	if err != nil {
		return err
	}
	snapshot, err := cmd.Flags().GetString("snapshot")
	if err != nil {
		return err
	}

	speaker, err := pulseaudio.NewWriter(pulseaudio.Config{
		Format:     pulseaudio.SampleFormatFloat32NE,
		Rate:       rcv.AudioRate(),
		AppName:    "rf",
		StreamName: "websdr",
		Channels:   1,
		SinkName:   sinkName,
	})
	if err != nil {
		return err
	}

	go func() {
		for n := range rcv.Notices() {
			log.Info("notice",
				zap.Stringer("severity", n.Severity),
				zap.String("summary", n.Summary),
				zap.String("detail", n.Detail),
			)
		}
	}()

	go func() {
		for status := range rcv.Updates() {
			log.Debug("status",
				zap.Stringer("connection", status.Connection),
				zap.Stringer("session", status.Session.State),
				zap.Stringer("frequency", status.Session.Frequency),
				zap.Uint64("underruns", status.Jitter.Underruns),
				zap.Uint64("dropped", status.Dropped),
			)
		}
	}()

	bitmaps := make(chan waterfall.Bitmap, 1)
	go func() {
		var last waterfall.Bitmap
		for bm := range rcv.Frames() {
			last = bm
		}
		bitmaps <- last
	}()

	for chunk := range rcv.Audio() {
		if err := speaker.Write(chunk); err != nil {
			return err
		}
	}

	last := <-bitmaps
	if snapshot == "" || last.Image == nil {
		return nil
	}
	return writePNG(snapshot, last)
}

func writePNG(path string, bm waterfall.Bitmap) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(fd, bm.Image); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

// vim: foldmethod=marker
