package model

import "slices"

// Kind partitions the catalogue into product families. Both families share
// the same workflow, only the accepted content types differ.
type Kind string

const (
	KindPack Kind = "pack"
	KindBeat Kind = "beat"
)

var Kinds = []Kind{KindPack, KindBeat}

var contentTypes = map[Kind][]string{
	KindPack: {"Sample", "Preset", "MIDI"},
	KindBeat: {"Beat"},
}

func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// Path is the plural URL segment used for the kind's route group
func (k Kind) Path() string {
	return string(k) + "s"
}

// ContentTypes lists the submission types accepted for the kind
func (k Kind) ContentTypes() []string {
	return contentTypes[k]
}

func (k Kind) AcceptsType(t string) bool {
	return slices.Contains(contentTypes[k], t)
}

type FileType string

const (
	FileTypeMP3 FileType = "mp3"
	FileTypeWAV FileType = "wav"
	FileTypeZIP FileType = "zip"
)

var FileTypes = []FileType{FileTypeMP3, FileTypeWAV, FileTypeZIP}

type Source string

const (
	SourceElectronic   Source = "Electronic"
	SourceLiveRecorded Source = "Live Recorded"
)

var Sources = []Source{SourceElectronic, SourceLiveRecorded}

type BPMType string

const (
	BPMExact BPMType = "Exact"
	BPMRange BPMType = "Range"
)

var BPMTypes = []BPMType{BPMExact, BPMRange}

type KeyScale string

const (
	ScaleMinor KeyScale = "Minor"
	ScaleMajor KeyScale = "Major"
)

var KeyScales = []KeyScale{ScaleMinor, ScaleMajor}

type KeyType string

const (
	KeyFlat  KeyType = "Flat"
	KeySharp KeyType = "Sharp"
)

var KeyTypes = []KeyType{KeyFlat, KeySharp}

var (
	FlatKeys  = []string{"Db", "Eb", "Gb", "Ab", "Bb", "A", "B", "C", "D", "E", "F", "G"}
	SharpKeys = []string{"D#", "E#", "G#", "A#", "B#", "A", "B", "C", "D", "E", "F", "G"}
)
