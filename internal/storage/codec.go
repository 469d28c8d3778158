package storage

import (
	"encoding/json"
	"errors"
	"math"

	"raceline/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1

	// JSON cannot carry infinity; a never-completed lap is stored as -1.
	noLapTimeSentinel = -1.0
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeCheckpoint(c model.Checkpoint) ([]byte, error) {
	if math.IsInf(c.BestLapTime, 1) {
		c.BestLapTime = noLapTimeSentinel
	}
	return json.Marshal(c)
}

func DecodeCheckpoint(data []byte) (model.Checkpoint, error) {
	var checkpoint model.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return model.Checkpoint{}, err
	}
	if err := checkVersion(checkpoint.VersionedRecord); err != nil {
		return model.Checkpoint{}, err
	}
	if checkpoint.BestLapTime == noLapTimeSentinel {
		checkpoint.BestLapTime = model.NoLapTime()
	}
	return checkpoint, nil
}

func EncodeControllerRecord(rec model.ControllerRecord) ([]byte, error) {
	return json.Marshal(rec)
}

func DecodeControllerRecord(data []byte) (model.ControllerRecord, error) {
	var rec model.ControllerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.ControllerRecord{}, err
	}
	if err := checkVersion(rec.VersionedRecord); err != nil {
		return model.ControllerRecord{}, err
	}
	return rec, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeDiagnostics(diagnostics []model.GenerationDiagnostics) ([]byte, error) {
	return json.Marshal(diagnostics)
}

func DecodeDiagnostics(data []byte) ([]model.GenerationDiagnostics, error) {
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// StampVersion fills the version fields on records produced by this build.
func StampVersion() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}
