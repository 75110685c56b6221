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
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"hz.tools/rf"

	websdr "github.com/Biblink02/WebSDR-Transceiver"
	"github.com/Biblink02/WebSDR-Transceiver/tuner"
)

var (
	// ErrUnknownEvent is returned for a text message naming an event this
	// client does not handle.
	ErrUnknownEvent = errors.New("socket: unknown event")

	// ErrUnknownTag is returned for a binary message with an unknown tag
	// byte.
	ErrUnknownTag = errors.New("socket: unknown binary tag")

	// ErrEmptyMessage is returned for a message with no content.
	ErrEmptyMessage = errors.New("socket: empty message")
)

// Binary message tags.
const (
	TagGraphics byte = 0x01
	TagAudio    byte = 0x02
	TagIQ       byte = 0x03
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type assignedData struct {
	Worker json.RawMessage `json:"worker"`
	Freq   float64         `json:"freq,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type correctionData struct {
	Freq      float64 `json:"freq,omitempty"`
	Bandwidth float64 `json:"bw,omitempty"`
	Message   string  `json:"message,omitempty"`
}

type tuneData struct {
	Freq      float64 `json:"freq"`
	Bandwidth float64 `json:"bw"`
}

// workerID accepts both string and numeric worker ids.
func workerID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// DecodeText decodes a JSON control message.
func DecodeText(msg []byte) (websdr.Event, error) {
	if len(msg) == 0 {
		return nil, ErrEmptyMessage
	}
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, err
	}

	switch env.Event {
	case "worker_assigned":
		var data assignedData
		if err := unmarshalData(env.Data, &data); err != nil {
			return nil, err
		}
		return websdr.WorkerAssigned{
			Worker:    workerID(data.Worker),
			Frequency: rf.Hz(data.Freq),
			Warning:   data.Error,
		}, nil
	case "worker_released":
		return websdr.WorkerReleased{}, nil
	case "server_full":
		return websdr.ServerFull{}, nil
	case "tuning_correction":
		var data correctionData
		if err := unmarshalData(env.Data, &data); err != nil {
			return nil, err
		}
		return websdr.TuningCorrection{
			Frequency: rf.Hz(data.Freq),
			Bandwidth: rf.Hz(data.Bandwidth),
			Message:   data.Message,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, strconv.Quote(env.Event))
	}
}

func unmarshalData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// DecodeBinary decodes a tagged sample frame.
func DecodeBinary(msg []byte) (websdr.Event, error) {
	if len(msg) == 0 {
		return nil, ErrEmptyMessage
	}
	body := msg[1:]
	switch msg[0] {
	case TagGraphics:
		bins, err := websdr.DecodeFloat32(body)
		if err != nil {
			return nil, err
		}
		return websdr.GraphicsFrame{Bins: bins}, nil
	case TagAudio:
		samples, err := websdr.DecodeFloat32(body)
		if err != nil {
			return nil, err
		}
		return websdr.AudioFrame{Samples: samples}, nil
	case TagIQ:
		iq, err := websdr.DecodeIQ(body)
		if err != nil {
			return nil, err
		}
		return websdr.IQFrame{Samples: iq}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownTag, msg[0])
	}
}

// EncodeCommand encodes a command as a JSON control message.
func EncodeCommand(cmd tuner.Command) ([]byte, error) {
	env := envelope{Event: cmd.Name()}

	var data interface{}
	switch c := cmd.(type) {
	case tuner.RequestWorker:
		data = tuneData{Freq: float64(c.Frequency), Bandwidth: float64(c.Bandwidth)}
	case tuner.Tune:
		data = tuneData{Freq: float64(c.Frequency), Bandwidth: float64(c.Bandwidth)}
	case tuner.ReleaseWorker:
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// vim: foldmethod=marker
