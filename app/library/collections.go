package library

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/service"

	"github.com/gin-gonic/gin"
)

type collectionBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func CollectionCreate(c *gin.Context, d *internal.Deps, kind model.Kind) {
	var in collectionBody
	if err := c.ShouldBindJSON(&in); err != nil {
		common.BindFailed(c, err)
		return
	}

	col, err := d.Library.CreateCollection(c.Request.Context(), common.Principal(c), kind, in.Name, in.Description)
	if err != nil {
		common.Fail(c, err, "create collection")
		return
	}

	c.JSON(http.StatusCreated, col)
}

func CollectionList(c *gin.Context, d *internal.Deps, kind model.Kind) {
	cols, err := d.Library.Collections(c.Request.Context(), common.Principal(c), kind)
	if err != nil {
		common.Fail(c, err, "list collections")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": cols})
}

// CollectionDropdown returns id and name only, for pickers
func CollectionDropdown(c *gin.Context, d *internal.Deps, kind model.Kind) {
	opts, err := d.Library.CollectionDropdown(c.Request.Context(), common.Principal(c), kind)
	if err != nil {
		common.Fail(c, err, "list collection options")
		return
	}

	c.JSON(http.StatusOK, opts)
}

func CollectionDelete(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	if err := d.Library.DeleteCollection(c.Request.Context(), common.Principal(c), kind, id); err != nil {
		common.Fail(c, err, "delete collection")
		return
	}

	c.Status(http.StatusNoContent)
}

// fileInput takes the collection from the path and the file from the body
func fileInput(id uint, b fileBody, kind model.Kind) service.CollectionFileInput {
	return service.CollectionFileInput{
		CollectionID:   id,
		CollectionName: b.CollectionName,
		FileRef:        b.ref(kind),
	}
}

func CollectionAdd(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	var b fileBody
	if err := c.ShouldBindJSON(&b); err != nil {
		common.BindFailed(c, err)
		return
	}

	cf, err := d.Library.AddToCollection(c.Request.Context(), common.Principal(c), kind, fileInput(id, b, kind))
	if err != nil {
		common.Fail(c, err, "add file to collection")
		return
	}

	c.JSON(http.StatusCreated, cf)
}

func CollectionRemove(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	var b fileBody
	if err := c.ShouldBindJSON(&b); err != nil {
		common.BindFailed(c, err)
		return
	}

	if err := d.Library.RemoveFromCollection(c.Request.Context(), common.Principal(c), kind, fileInput(id, b, kind)); err != nil {
		common.Fail(c, err, "remove file from collection")
		return
	}

	c.Status(http.StatusNoContent)
}

func CollectionFiles(c *gin.Context, d *internal.Deps, kind model.Kind) {
	groups, err := d.Library.CollectionFiles(c.Request.Context(), common.Principal(c), kind, c.Query("type"))
	if err != nil {
		common.Fail(c, err, "list collection files")
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": groups})
}
