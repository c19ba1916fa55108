package validators

import (
	"errors"
	"slices"
	"strconv"

	"soulfamily/sounds-api/internal/model"
)

var (
	ErrBPMType     = errors.New("Invalid file_bpm_type")
	ErrBPMNotNum   = errors.New("file_bpm_start_value and file_bpm_end_value should be numerical values")
	ErrBPMOrder    = errors.New("file_bpm_start_value should be less than file_bpm_end_value")
	ErrBPMNegative = errors.New("file_bpm_start_value or file_bpm_end_value cannot be zero")
	ErrBPMExact    = errors.New("file_bpm_start_value should be equal to file_bpm_end_value in exact range case")

	ErrKey         = errors.New("Invalid file_key")
	ErrKeyScale    = errors.New("Invalid file_key_scale")
	ErrKeyType     = errors.New("Invalid file_key_type")
	ErrKeyNotFlat  = errors.New("given key is not flat")
	ErrKeyNotSharp = errors.New("given key is not sharp")

	ErrFileType   = errors.New("Invalid file_type")
	ErrFileSource = errors.New("Invalid file_source")
)

// BPM parses a tempo range. Checks run in a fixed order so the first
// failing rule is the one reported.
func BPM(typ, start, end string) (*model.BPM, error) {
	t := model.BPMType(typ)
	if !slices.Contains(model.BPMTypes, t) {
		return nil, ErrBPMType
	}

	s, err := strconv.Atoi(start)
	if err != nil {
		return nil, ErrBPMNotNum
	}

	e, err := strconv.Atoi(end)
	if err != nil {
		return nil, ErrBPMNotNum
	}

	if s > e {
		return nil, ErrBPMOrder
	}

	if s < 0 || e < 0 {
		return nil, ErrBPMNegative
	}

	if t == model.BPMExact && s != e {
		return nil, ErrBPMExact
	}

	return &model.BPM{Start: s, End: e, Type: t}, nil
}

// Key validates a key against the declared accidental type.
func Key(key, scale, typ string) (*model.MusicalKey, error) {
	if !slices.Contains(model.FlatKeys, key) && !slices.Contains(model.SharpKeys, key) {
		return nil, ErrKey
	}

	sc := model.KeyScale(scale)
	if !slices.Contains(model.KeyScales, sc) {
		return nil, ErrKeyScale
	}

	kt := model.KeyType(typ)
	switch kt {
	case model.KeyFlat:
		if !slices.Contains(model.FlatKeys, key) {
			return nil, ErrKeyNotFlat
		}
	case model.KeySharp:
		if !slices.Contains(model.SharpKeys, key) {
			return nil, ErrKeyNotSharp
		}
	default:
		return nil, ErrKeyType
	}

	return &model.MusicalKey{Name: key, Scale: sc, Type: kt}, nil
}

func FileType(t string) (model.FileType, error) {
	ft := model.FileType(t)
	if !slices.Contains(model.FileTypes, ft) {
		return "", ErrFileType
	}

	return ft, nil
}

func Source(s string) (model.Source, error) {
	src := model.Source(s)
	if !slices.Contains(model.Sources, src) {
		return "", ErrFileSource
	}

	return src, nil
}
