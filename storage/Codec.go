package storage

import (
	"encoding/json"
	"errors"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeCheckpoint(c Checkpoint) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCheckpoint(data []byte) (Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return Checkpoint{}, err
	}
	if err := checkVersion(c.VersionedRecord); err != nil {
		return Checkpoint{}, err
	}
	return c, nil
}

func EncodeSummary(s RunSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSummary(data []byte) (RunSummary, error) {
	var s RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return RunSummary{}, err
	}
	if err := checkVersion(s.VersionedRecord); err != nil {
		return RunSummary{}, err
	}
	return s, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
