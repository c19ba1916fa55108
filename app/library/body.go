// Package library serves likes, downloads and collections to members
package library

import (
	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/service"
)

// fileBody names a file of an item. The item id key follows the kind of the
// route, missing ids are reported as required by the services.
type fileBody struct {
	PackID         uint   `json:"pack_id"`
	BeatID         uint   `json:"beat_id"`
	AudioFileID    *uint  `json:"audio_file_id"`
	CollectionName string `json:"collection_name"`
}

func (b fileBody) contentID(kind model.Kind) uint {
	if kind == model.KindBeat {
		return b.BeatID
	}

	return b.PackID
}

func (b fileBody) ref(kind model.Kind) service.FileRef {
	ref := service.FileRef{ContentID: b.contentID(kind)}
	if b.AudioFileID != nil {
		ref.AudioFileID = *b.AudioFileID
	}

	return ref
}
