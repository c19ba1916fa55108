// Package taxonomy exposes the per kind reference data. Reads are open to
// any signed in user, writes are admin only (see the router).
package taxonomy

import (
	"net/http"

	"soulfamily/sounds-api/app/common"
	"soulfamily/sounds-api/internal"
	"soulfamily/sounds-api/internal/model"

	"github.com/gin-gonic/gin"
)

type entryBody struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Active    *bool  `json:"is_active"`
}

// active defaults to true when the field is left out
func (b entryBody) active() bool {
	return b.Active == nil || *b.Active
}

func bindEntry(c *gin.Context) (entryBody, bool) {
	var b entryBody
	if err := c.ShouldBindJSON(&b); err != nil {
		common.BindFailed(c, err)
		return b, false
	}

	return b, true
}

func respond(c *gin.Context, code int, v any, err error, action string) {
	if err != nil {
		common.Fail(c, err, action)
		return
	}

	if v == nil {
		c.Status(code)
		return
	}

	c.JSON(code, v)
}

func Dropdowns(c *gin.Context, d *internal.Deps, kind model.Kind) {
	v, err := d.Taxonomy.Dropdowns(c.Request.Context(), kind)
	respond(c, http.StatusOK, v, err, "load dropdowns")
}

func Genres(c *gin.Context, d *internal.Deps, kind model.Kind) {
	v, err := d.Taxonomy.Genres(c.Request.Context(), kind)
	respond(c, http.StatusOK, v, err, "list genres")
}

func GenreCreate(c *gin.Context, d *internal.Deps, kind model.Kind) {
	b, ok := bindEntry(c)
	if !ok {
		return
	}

	v, err := d.Taxonomy.CreateGenre(c.Request.Context(), kind, b.Name, b.active())
	respond(c, http.StatusCreated, v, err, "create genre")
}

func GenreDelete(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	err := d.Taxonomy.DeleteGenre(c.Request.Context(), kind, id)
	respond(c, http.StatusNoContent, nil, err, "delete genre")
}

func SubGenres(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	v, err := d.Taxonomy.SubGenres(c.Request.Context(), kind, id)
	respond(c, http.StatusOK, v, err, "list sub genres")
}

func SubGenreCreate(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	b, ok := bindEntry(c)
	if !ok {
		return
	}

	v, err := d.Taxonomy.CreateSubGenre(c.Request.Context(), kind, id, b.Name)
	respond(c, http.StatusCreated, v, err, "create sub genre")
}

func SubGenreDelete(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	subID, ok := common.ParamID(c, "subID")
	if !ok {
		return
	}

	err := d.Taxonomy.DeleteSubGenre(c.Request.Context(), kind, id, subID)
	respond(c, http.StatusNoContent, nil, err, "delete sub genre")
}

func Instruments(c *gin.Context, d *internal.Deps, kind model.Kind) {
	v, err := d.Taxonomy.Instruments(c.Request.Context(), kind)
	respond(c, http.StatusOK, v, err, "list instruments")
}

func InstrumentCreate(c *gin.Context, d *internal.Deps, kind model.Kind) {
	b, ok := bindEntry(c)
	if !ok {
		return
	}

	v, err := d.Taxonomy.CreateInstrument(c.Request.Context(), kind, b.Name, b.active())
	respond(c, http.StatusCreated, v, err, "create instrument")
}

func InstrumentDelete(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	err := d.Taxonomy.DeleteInstrument(c.Request.Context(), kind, id)
	respond(c, http.StatusNoContent, nil, err, "delete instrument")
}

func SubInstruments(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	v, err := d.Taxonomy.SubInstruments(c.Request.Context(), kind, id)
	respond(c, http.StatusOK, v, err, "list sub instruments")
}

func SubInstrumentCreate(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	b, ok := bindEntry(c)
	if !ok {
		return
	}

	v, err := d.Taxonomy.CreateSubInstrument(c.Request.Context(), kind, id, b.Name)
	respond(c, http.StatusCreated, v, err, "create sub instrument")
}

func SubInstrumentDelete(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	subID, ok := common.ParamID(c, "subID")
	if !ok {
		return
	}

	err := d.Taxonomy.DeleteSubInstrument(c.Request.Context(), kind, id, subID)
	respond(c, http.StatusNoContent, nil, err, "delete sub instrument")
}

func Moods(c *gin.Context, d *internal.Deps, kind model.Kind) {
	v, err := d.Taxonomy.Moods(c.Request.Context(), kind)
	respond(c, http.StatusOK, v, err, "list moods")
}

func MoodCreate(c *gin.Context, d *internal.Deps, kind model.Kind) {
	b, ok := bindEntry(c)
	if !ok {
		return
	}

	v, err := d.Taxonomy.CreateMood(c.Request.Context(), kind, b.Name, b.active())
	respond(c, http.StatusCreated, v, err, "create mood")
}

func MoodDelete(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	err := d.Taxonomy.DeleteMood(c.Request.Context(), kind, id)
	respond(c, http.StatusNoContent, nil, err, "delete mood")
}

func Plugins(c *gin.Context, d *internal.Deps, kind model.Kind) {
	v, err := d.Taxonomy.Plugins(c.Request.Context(), kind)
	respond(c, http.StatusOK, v, err, "list plugins")
}

func PluginCreate(c *gin.Context, d *internal.Deps, kind model.Kind) {
	b, ok := bindEntry(c)
	if !ok {
		return
	}

	v, err := d.Taxonomy.CreatePlugin(c.Request.Context(), kind, b.Name, b.Extension, b.active())
	respond(c, http.StatusCreated, v, err, "create plugin")
}

func PluginDelete(c *gin.Context, d *internal.Deps, kind model.Kind) {
	id, ok := common.ParamID(c, "id")
	if !ok {
		return
	}

	err := d.Taxonomy.DeletePlugin(c.Request.Context(), kind, id)
	respond(c, http.StatusNoContent, nil, err, "delete plugin")
}
