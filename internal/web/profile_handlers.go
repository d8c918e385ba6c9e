package web

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/internal/profile"
)

// canEdit reports whether the caller may edit userID's profile: their
// own, or anyone's with the update capability.
func (s *Server) canEdit(caller access.Caller, userID int64) bool {
	if caller.UserID > 0 && caller.UserID == userID {
		return true
	}
	return s.checker.HasCapability(caller, access.CapUserUpdate, access.SystemScope())
}

// canView reports whether the caller may read userID's full record.
func (s *Server) canView(caller access.Caller, userID int64) bool {
	if caller.UserID > 0 && caller.UserID == userID {
		return true
	}
	return s.checker.HasCapability(caller, access.CapViewAllDetails, access.UserScope(userID))
}

// editProfileForm runs the definition stages for userID's edit form.
func (s *Server) editProfileForm(page *profile.Page, userID int64) (*form.Form, error) {
	id := strconv.FormatInt(userID, 10)
	f := form.New("/users/" + id + "/edit")
	f.SubmitLabel = page.Translator.String("savechanges")
	f.AddHidden("id", id)
	f.SetType("id", form.ParamInt)

	if err := profile.Definition(page, f, userID); err != nil {
		return nil, err
	}
	values := form.Submission{}
	if err := profile.LoadData(page, values, userID); err != nil {
		return nil, err
	}
	f.SetData(values)
	if err := profile.DefinitionAfterData(page, f, userID); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Server) editForm(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	page := s.page(c)
	if !s.canEdit(page.Caller, userID) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cannot edit this profile"})
		return
	}
	f, err := s.editProfileForm(page, userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderForm(c, http.StatusOK, page.Translator.String("editprofile"), f)
}

func (s *Server) saveProfile(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	page := s.page(c)
	if !s.canEdit(page.Caller, userID) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cannot edit this profile"})
		return
	}
	f, err := s.editProfileForm(page, userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := f.Bind(c.Request.PostForm)
	errs := f.Validate(sub)
	fieldErrs, err := profile.Validation(page, sub, userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	for k, v := range fieldErrs {
		if _, ok := errs[k]; !ok {
			errs[k] = v
		}
	}
	if len(errs) > 0 {
		f.SetErrors(errs)
		s.renderForm(c, http.StatusUnprocessableEntity, page.Translator.String("editprofile"), f)
		return
	}

	if err := profile.SaveData(page, sub, userID); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/users/"+strconv.FormatInt(userID, 10))
}

func (s *Server) showProfile(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	rows, err := profile.DisplayFields(s.page(c), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	var body bytes.Buffer
	if err := profile.RenderDisplay(&body, rows); err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, http.StatusOK, "User "+strconv.FormatInt(userID, 10), &body)
}

func (s *Server) userRecord(c *gin.Context) {
	userID, ok := pathID(c)
	if !ok {
		return
	}
	page := s.page(c)
	if !s.canView(page.Caller, userID) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cannot view this profile"})
		return
	}
	user := &profile.User{ID: userID}
	if err := profile.LoadCustomFields(page, user); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) signupForm(c *gin.Context) {
	page := s.page(c)
	f := form.New("/signup")
	f.SubmitLabel = page.Translator.String("savechanges")
	if err := profile.SignupFields(page, f); err != nil {
		s.fail(c, err)
		return
	}
	s.renderForm(c, http.StatusOK, page.Translator.String("signup"), f)
}

func (s *Server) renderForm(c *gin.Context, status int, title string, f *form.Form) {
	var body bytes.Buffer
	if err := f.Render(&body); err != nil {
		s.fail(c, err)
		return
	}
	s.html(c, status, title, &body)
}
