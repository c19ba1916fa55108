package library

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"

	"github.com/gin-gonic/gin"
)

// Download records a download of one file, or of every approved file of
// the item when audio_file_id is left out
func Download(c *gin.Context, d *internal.Deps, kind model.Kind) {
	var b fileBody
	if err := c.ShouldBindJSON(&b); err != nil {
		common.BindFailed(c, err)
		return
	}

	res, err := d.Library.Download(c.Request.Context(), common.Principal(c), kind, b.ref(kind), b.AudioFileID == nil)
	if err != nil {
		common.Fail(c, err, "download")
		return
	}

	c.JSON(http.StatusOK, res)
}

func Downloads(c *gin.Context, d *internal.Deps, kind model.Kind) {
	views, err := d.Library.Downloads(c.Request.Context(), common.Principal(c), kind, c.Query("type"))
	if err != nil {
		common.Fail(c, err, "list downloads")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": views})
}

func DownloadFiles(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	files, err := d.Library.DownloadFiles(c.Request.Context(), common.Principal(c), kind, id)
	if err != nil {
		common.Fail(c, err, "list download files")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": files})
}
