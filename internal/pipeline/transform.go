package pipeline

import (
	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
)

// Source names one of the two joined datasets.
type Source string

const (
	SourceRainfall  Source = "chuvas"
	SourceIncidence Source = "dengue"
)

// KeyValue is a numeric measure attached to a join key.
type KeyValue struct {
	Key   domain.Key
	Value float64
}

// Transformer turns one raw input line into a keyed measure.
type Transformer interface {
	Transform(raw domain.RawLine) (KeyValue, error)
}

// IncidenceTransformer keys a dengue notification line by state and month and
// yields its case count.
type IncidenceTransformer struct{}

func (IncidenceTransformer) Transform(raw domain.RawLine) (KeyValue, error) {
	rec, err := domain.ParseIncidence(raw.Text)
	if err != nil {
		return KeyValue{}, err
	}
	key, err := rec.Key()
	if err != nil {
		return KeyValue{}, err
	}
	cases, err := rec.CaseCount()
	if err != nil {
		return KeyValue{}, err
	}
	return KeyValue{Key: key, Value: cases}, nil
}

// RainfallTransformer keys a rainfall line by state and month and yields its
// clamped millimeter reading.
type RainfallTransformer struct{}

func (RainfallTransformer) Transform(raw domain.RawLine) (KeyValue, error) {
	rec, err := domain.ParseRainfall(raw.Text)
	if err != nil {
		return KeyValue{}, err
	}
	key, err := rec.Key()
	if err != nil {
		return KeyValue{}, err
	}
	mm, err := rec.Amount()
	if err != nil {
		return KeyValue{}, err
	}
	return KeyValue{Key: key, Value: mm}, nil
}
