package persistence

import (
	"bytes"
	"encoding/gob"

	"github.com/petrijr/autoplan/pkg/api"
)

// EncodeEvent gob-encodes a RunEvent.
func EncodeEvent(ev api.RunEvent) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEvent gob-decodes a RunEvent.
func DecodeEvent(data []byte) (api.RunEvent, error) {
	var ev api.RunEvent
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ev); err != nil {
		return api.RunEvent{}, err
	}
	return ev, nil
}
