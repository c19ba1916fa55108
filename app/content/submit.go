package content

import (
	"net/http"
	"strconv"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmissionCreate reads a multipart form. Text fields are prefixed with
// the kind (beat_title, pack_title, ...), the per-file classification comes
// as json in demo_meta and audio_files_meta.
func SubmissionCreate(c *gin.Context, d *internal.Deps, kind model.Kind) {
	prefix := string(kind) + "_"

	var demo fileMeta
	if err := decodeMeta(c, "demo_meta", &demo); err != nil {
		common.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	files, err := audioFiles(c)
	if err != nil {
		common.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	var price float64
	if raw := c.PostForm(prefix + "exclusive_price"); raw != "" {
		price, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			common.Detail(c, http.StatusBadRequest, prefix+"exclusive_price must be a number")
			return
		}
	}

	sub, err := d.Submissions.Create(c.Request.Context(), common.Principal(c), kind, service.CreateSubmission{
		Type:           c.PostForm(prefix + "type"),
		Title:          c.PostForm(prefix + "title"),
		Description:    c.PostForm(prefix + "description"),
		Genre:          c.PostForm("genre"),
		SubGenre:       c.PostForm("sub_genre"),
		Moods:          c.PostFormArray("moods"),
		ExclusivePrice: price,
		Artwork:        common.FormFile(c, prefix+"artwork_file"),
		Demo:           demo.input(common.FormFile(c, prefix+"demo")),
		Files:          files,
	})
	if err != nil {
		common.Fail(c, err, "create submission")
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// FileResolve replaces a file sent back for revision. The form carries the
// new file as "file" and its classification as json in "meta".
func FileResolve(c *gin.Context, d *internal.Deps, kind model.Kind) {
	subID, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	fileID, ok := common.ParamID(c, "fileID")
	if !ok {
		return
	}

	var meta fileMeta
	if err := decodeMeta(c, "meta", &meta); err != nil {
		common.Detail(c, http.StatusBadRequest, err.Error())
		return
	}

	af, err := d.Submissions.ResolveRevision(c.Request.Context(), common.Principal(c), kind, subID, fileID, meta.input(common.FormFile(c, "file")))
	if err != nil {
		common.Fail(c, err, "resolve revision")
		return
	}

	c.JSON(http.StatusOK, af)
}
