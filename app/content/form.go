// Package content serves the submission side of the catalogue. Every
// handler takes the kind its route group was registered for.
package content

import (
	"encoding/json"
	"fmt"
	"mime/multipart"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

// fileMeta is the classification sent alongside each audio part
type fileMeta struct {
	Name          string      `json:"file_name"`
	Genre         string      `json:"genre"`
	SubGenre      string      `json:"sub_genre"`
	Instrument    string      `json:"instrument"`
	SubInstrument string      `json:"sub_instrument"`
	Mood          string      `json:"mood"`
	BPMType       string      `json:"file_bpm_type"`
	BPMStart      json.Number `json:"file_bpm_start_value"`
	BPMEnd        json.Number `json:"file_bpm_end_value"`
	Key           string      `json:"file_key"`
	KeyScale      string      `json:"file_key_scale"`
	KeyType       string      `json:"file_key_type"`
	Type          string      `json:"file_type"`
	Source        string      `json:"file_source"`
}

func (m fileMeta) input(up service.Upload) service.FileInput {
	return service.FileInput{
		Upload:        up,
		Name:          m.Name,
		Genre:         m.Genre,
		SubGenre:      m.SubGenre,
		Instrument:    m.Instrument,
		SubInstrument: m.SubInstrument,
		Mood:          m.Mood,
		BPMType:       m.BPMType,
		BPMStart:      m.BPMStart.String(),
		BPMEnd:        m.BPMEnd.String(),
		Key:           m.Key,
		KeyScale:      m.KeyScale,
		KeyType:       m.KeyType,
		Type:          m.Type,
		Source:        m.Source,
	}
}

// decodeMeta reads a JSON form value into v. A missing value leaves v
// untouched.
func decodeMeta(c *gin.Context, field string, v any) error {
	raw := c.PostForm(field)
	if raw == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%s is not valid json", field)
	}

	return nil
}

// audioFiles pairs the audio_files parts with the audio_files_meta entries
// by position
func audioFiles(c *gin.Context) ([]service.FileInput, error) {
	var metas []fileMeta
	if err := decodeMeta(c, "audio_files_meta", &metas); err != nil {
		return nil, err
	}

	var parts []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		parts = form.File["audio_files"]
	}

	if len(parts) != len(metas) {
		return nil, fmt.Errorf("expected %d audio_files_meta entries, got %d", len(parts), len(metas))
	}

	out := make([]service.FileInput, len(parts))
	for i, fh := range parts {
		out[i] = metas[i].input(common.FromHeader(fh))
	}

	return out, nil
}
