package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/profilefields/internal/category"
	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/internal/profile"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

type categoryListing struct {
	*types.Category
	Fields []*types.Field `json:"fields"`
}

func (s *Server) listCategories(c *gin.Context) {
	cats, err := category.List(s.store, types.ObjectUser)
	if err != nil {
		s.fail(c, err)
		return
	}
	fields, err := s.fieldsByCategory()
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]categoryListing, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categoryListing{Category: cat, Fields: append([]*types.Field{}, fields[cat.ID]...)})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

func (s *Server) fieldsByCategory() (map[int64][]*types.Field, error) {
	tbl, err := s.store.GetTable(types.TableFields)
	if err != nil {
		return nil, err
	}
	rows, err := tbl.Fetch(types.Filter{"object_name": types.ObjectUser})
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]*types.Field)
	for _, row := range rows {
		f := row.(*types.Field)
		out[f.CategoryID] = append(out[f.CategoryID], f)
	}
	return out, nil
}

func (s *Server) newCategoryForm(c *gin.Context) *form.Form {
	tr := s.bundle.Printer(callerOf(c).Locale)
	f := form.New("/admin/categories/edit")
	f.SubmitLabel = tr.String("savechanges")
	category.Definition(f, tr)
	return f
}

func (s *Server) categoryForm(c *gin.Context) {
	f := s.newCategoryForm(c)
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			s.fail(c, types.ErrInvalidID)
			return
		}
		tbl, err := s.store.GetTable(types.TableCategories)
		if err != nil {
			s.fail(c, err)
			return
		}
		row, err := tbl.Get(id)
		if err != nil {
			s.fail(c, err)
			return
		}
		category.Load(f, row.(*types.Category))
	}
	s.renderForm(c, http.StatusOK, s.bundle.Printer(callerOf(c).Locale).String("categories"), f)
}

func (s *Server) saveCategory(c *gin.Context) {
	tr := s.bundle.Printer(callerOf(c).Locale)
	f := s.newCategoryForm(c)
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub := f.Bind(c.Request.PostForm)
	errs := f.Validate(sub)
	dupErrs, err := category.Validate(s.store, types.ObjectUser, sub, tr)
	if err != nil {
		s.fail(c, err)
		return
	}
	for k, v := range dupErrs {
		if _, ok := errs[k]; !ok {
			errs[k] = v
		}
	}
	if len(errs) > 0 {
		f.SetErrors(errs)
		s.renderForm(c, http.StatusUnprocessableEntity, tr.String("categories"), f)
		return
	}
	if _, err := category.Save(s.store, types.ObjectUser, sub); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/categories")
}

func (s *Server) deleteCategory(c *gin.Context) {
	s.deleteFrom(c, types.TableCategories)
}

func (s *Server) deleteField(c *gin.Context) {
	s.deleteFrom(c, types.TableFields)
}

func (s *Server) deleteFrom(c *gin.Context, table string) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tbl, err := s.store.GetTable(table)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := tbl.Delete(id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) moveCategory(c *gin.Context) {
	s.move(c, s.store.MoveCategory)
}

func (s *Server) moveField(c *gin.Context) {
	s.move(c, s.store.MoveField)
}

func (s *Server) move(c *gin.Context, fn func(id int64, up bool) (bool, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var up bool
	switch c.DefaultQuery("dir", "up") {
	case "up":
		up = true
	case "down":
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "dir must be up or down"})
		return
	}
	moved, err := fn(id, up)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}

func (s *Server) listFields(c *gin.Context) {
	byCategory, err := s.fieldsByCategory()
	if err != nil {
		s.fail(c, err)
		return
	}
	var fields []*types.Field
	cats, err := category.List(s.store, types.ObjectUser)
	if err != nil {
		s.fail(c, err)
		return
	}
	for _, cat := range cats {
		fields = append(fields, byCategory[cat.ID]...)
	}
	if fields == nil {
		fields = []*types.Field{}
	}
	c.JSON(http.StatusOK, gin.H{"fields": fields, "datatypes": profile.Datatypes()})
}

// fieldRequest is the JSON body accepted by POST /admin/fields. Visible
// takes a level name or number.
type fieldRequest struct {
	ID                int64  `json:"id"`
	CategoryID        int64  `json:"category_id" binding:"required,gt=0"`
	Datatype          string `json:"datatype" binding:"required"`
	ShortName         string `json:"short_name" binding:"required,alphanum,max=100"`
	Name              string `json:"name" binding:"required,max=255"`
	Description       string `json:"description"`
	Visible           string `json:"visible"`
	Required          bool   `json:"required"`
	Unique            bool   `json:"unique"`
	Locked            bool   `json:"locked"`
	DefaultData       string `json:"default_data"`
	DefaultDataFormat int    `json:"default_data_format"`
	Signup            bool   `json:"signup"`
	Param1            string `json:"param1"`
	Param2            string `json:"param2"`
	Param3            string `json:"param3"`
}

func (s *Server) saveField(c *gin.Context) {
	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !profile.IsRegistered(req.Datatype) {
		s.fail(c, types.ErrUnknownDatatype)
		return
	}
	visible := types.VisibleAll
	if req.Visible != "" {
		v, err := types.ParseVisibility(req.Visible)
		if err != nil {
			s.fail(c, err)
			return
		}
		visible = v
	}

	tbl, err := s.store.GetTable(types.TableFields)
	if err != nil {
		s.fail(c, err)
		return
	}
	f := &types.Field{
		ID:                req.ID,
		CategoryID:        req.CategoryID,
		ObjectName:        types.ObjectUser,
		Datatype:          req.Datatype,
		ShortName:         req.ShortName,
		Name:              req.Name,
		Description:       req.Description,
		Visible:           visible,
		Required:          req.Required,
		Unique:            req.Unique,
		Locked:            req.Locked,
		DefaultData:       req.DefaultData,
		DefaultDataFormat: req.DefaultDataFormat,
		Signup:            req.Signup,
		Param1:            req.Param1,
		Param2:            req.Param2,
		Param3:            req.Param3,
	}
	if req.ID != 0 {
		row, err := tbl.Get(req.ID)
		if err != nil {
			s.fail(c, err)
			return
		}
		if prev := row.(*types.Field); prev.CategoryID == f.CategoryID {
			f.SortOrder = prev.SortOrder
		}
	}
	if _, err := tbl.Set(req.ID, f); err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusCreated
	if req.ID != 0 {
		status = http.StatusOK
	}
	c.JSON(status, f)
}
