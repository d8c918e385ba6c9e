package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/i18n"
	"github.com/mesh-intelligence/profilefields/internal/profile"
	"github.com/mesh-intelligence/profilefields/internal/sqlite"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

const (
	adminID    = 1
	managerID  = 3
	ownerID    = 5
	otherID    = 6
	strangerID = 9
)

type testServer struct {
	srv     *Server
	backend *sqlite.Backend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	checker, err := access.NewRoleChecker(access.DefaultRoles(), []access.Assignment{
		{UserID: adminID, Role: "admin"},
		{UserID: managerID, Role: "manager"},
	})
	require.NoError(t, err)
	bundle, err := i18n.Load()
	require.NoError(t, err)

	return &testServer{
		srv:     New(Options{Store: b, Checker: checker, Bundle: bundle}),
		backend: b,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, callerID int64, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if callerID > 0 {
		req.Header.Set(HeaderUserID, strconv.FormatInt(callerID, 10))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) get(t *testing.T, target string, callerID int64) *httptest.ResponseRecorder {
	return ts.do(t, http.MethodGet, target, callerID, "", "")
}

func (ts *testServer) postForm(t *testing.T, target string, callerID int64, values url.Values) *httptest.ResponseRecorder {
	return ts.do(t, http.MethodPost, target, callerID, values.Encode(), "application/x-www-form-urlencoded")
}

func (ts *testServer) postJSON(t *testing.T, target string, callerID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return ts.do(t, http.MethodPost, target, callerID, string(raw), "application/json")
}

func (ts *testServer) table(t *testing.T, name string) types.Table {
	t.Helper()
	tbl, err := ts.backend.GetTable(name)
	require.NoError(t, err)
	return tbl
}

func (ts *testServer) defaultCategoryID(t *testing.T) int64 {
	t.Helper()
	rows, err := ts.table(t, types.TableCategories).Fetch(types.Filter{"object_name": types.ObjectUser})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	return rows[0].(*types.Category).ID
}

func (ts *testServer) addField(t *testing.T, shortName, datatype string, mutate ...func(*types.Field)) *types.Field {
	t.Helper()
	f := &types.Field{
		CategoryID: ts.defaultCategoryID(t),
		ObjectName: types.ObjectUser,
		Datatype:   datatype,
		ShortName:  shortName,
		Name:       shortName,
		Visible:    types.VisibleAll,
	}
	for _, m := range mutate {
		m(f)
	}
	_, err := ts.table(t, types.TableFields).Set(0, f)
	require.NoError(t, err)
	return f
}

func (ts *testServer) storedData(t *testing.T, fieldID, userID int64) string {
	t.Helper()
	rows, err := ts.table(t, types.TableFieldData).Fetch(types.Filter{"field_id": fieldID, "object_id": userID})
	require.NoError(t, err)
	if len(rows) == 0 {
		return ""
	}
	return rows[0].(*types.FieldData).Data
}

func field(shortName string) string { return profile.InputPrefix + shortName }

func TestEditProfile(t *testing.T) {
	ts := newTestServer(t)
	nick := ts.addField(t, "nick", "text", func(f *types.Field) { f.Unique = true })

	tests := []struct {
		name   string
		caller int64
		values url.Values
		check  func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:   "owner saves and is redirected",
			caller: ownerID,
			values: url.Values{field("nick"): {"neo"}},
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusSeeOther, w.Code)
				assert.Equal(t, "/users/5", w.Header().Get("Location"))
				assert.Equal(t, "neo", ts.storedData(t, nick.ID, ownerID))
			},
		},
		{
			name:   "duplicate unique value is rejected",
			caller: otherID,
			values: url.Values{field("nick"): {"neo"}},
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
				assert.Contains(t, w.Body.String(), "This value has already been used.")
				assert.Empty(t, ts.storedData(t, nick.ID, otherID))
			},
		},
		{
			name:   "stranger cannot edit",
			caller: strangerID,
			values: url.Values{field("nick"): {"smith"}},
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusForbidden, w.Code)
				assert.Equal(t, "neo", ts.storedData(t, nick.ID, ownerID))
			},
		},
		{
			name:   "admin edits any profile",
			caller: adminID,
			values: url.Values{field("nick"): {"morpheus"}},
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusSeeOther, w.Code)
				assert.Equal(t, "morpheus", ts.storedData(t, nick.ID, ownerID))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/users/" + strconv.Itoa(ownerID) + "/edit"
			if tt.caller == otherID {
				target = "/users/" + strconv.Itoa(otherID) + "/edit"
			}
			tt.check(t, ts.postForm(t, target, tt.caller, tt.values))
		})
	}
}

func TestEditFormShowsStoredValue(t *testing.T) {
	ts := newTestServer(t)
	ts.addField(t, "nick", "text")
	require.Equal(t, http.StatusSeeOther,
		ts.postForm(t, "/users/5/edit", ownerID, url.Values{field("nick"): {"neo"}}).Code)

	w := ts.get(t, "/users/5/edit", ownerID)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="profile_field_nick"`)
	assert.Contains(t, body, `value="neo"`)
	assert.Contains(t, body, "Save changes")
}

func TestRequiredFieldRejectsEmpty(t *testing.T) {
	ts := newTestServer(t)
	ts.addField(t, "nick", "text", func(f *types.Field) { f.Required = true })

	w := ts.postForm(t, "/users/5/edit", ownerID, url.Values{field("nick"): {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `class="error"`)
}

func TestUserRecord(t *testing.T) {
	ts := newTestServer(t)
	nick := ts.addField(t, "nick", "text")
	_, err := ts.table(t, types.TableFieldData).Set(0, &types.FieldData{
		ObjectName: types.ObjectUser, ObjectID: ownerID, FieldID: nick.ID, Data: "neo",
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		caller int64
		status int
	}{
		{"owner", ownerID, http.StatusOK},
		{"manager", managerID, http.StatusOK},
		{"stranger", strangerID, http.StatusForbidden},
		{"anonymous", 0, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.get(t, "/users/5/profile", tt.caller)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}
			var user profile.User
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
			assert.Equal(t, int64(ownerID), user.ID)
			assert.Equal(t, "neo", user.Profile["nick"])
		})
	}
}

func TestShowProfile(t *testing.T) {
	ts := newTestServer(t)
	nick := ts.addField(t, "nick", "text")
	_, err := ts.table(t, types.TableFieldData).Set(0, &types.FieldData{
		ObjectName: types.ObjectUser, ObjectID: ownerID, FieldID: nick.ID, Data: "<b>neo</b>",
	})
	require.NoError(t, err)

	w := ts.get(t, "/users/5", strangerID)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "nick:")
	assert.Contains(t, body, "&lt;b&gt;neo&lt;/b&gt;")
	assert.NotContains(t, body, "<b>neo</b>")
}

func TestSignupForm(t *testing.T) {
	ts := newTestServer(t)
	ts.addField(t, "nick", "text", func(f *types.Field) { f.Signup = true })
	ts.addField(t, "secret", "text", func(f *types.Field) { f.Signup = true; f.Visible = types.VisibleNone })
	ts.addField(t, "bio", "textarea")

	w := ts.get(t, "/signup", 0)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="profile_field_nick"`)
	assert.NotContains(t, body, "profile_field_secret")
	assert.NotContains(t, body, "profile_field_bio")
	assert.Contains(t, body, "Other fields")
}

func TestAdminRequiresCapability(t *testing.T) {
	ts := newTestServer(t)
	for _, caller := range []int64{0, ownerID, managerID} {
		w := ts.get(t, "/admin/categories", caller)
		assert.Equal(t, http.StatusForbidden, w.Code, "caller %d", caller)
	}
	assert.Equal(t, http.StatusOK, ts.get(t, "/admin/categories", adminID).Code)
}

func TestAdminCategories(t *testing.T) {
	ts := newTestServer(t)

	w := ts.postForm(t, "/admin/categories/edit", adminID, url.Values{"id": {"0"}, "action": {"editcategory"}, "name": {"Contact"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/categories", w.Header().Get("Location"))

	w = ts.postForm(t, "/admin/categories/edit", adminID, url.Values{"id": {"0"}, "action": {"editcategory"}, "name": {"Contact"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "This category name is already in use")

	w = ts.get(t, "/admin/categories", adminID)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Categories []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Categories, 2)
	assert.Equal(t, "Other fields", listing.Categories[0].Name)
	assert.Equal(t, "Contact", listing.Categories[1].Name)
	contactID := strconv.FormatInt(listing.Categories[1].ID, 10)

	w = ts.get(t, "/admin/categories/edit?id="+contactID, adminID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="Contact"`)

	w = ts.do(t, http.MethodPost, "/admin/categories/"+contactID+"/move?dir=up", adminID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"moved":true}`, w.Body.String())

	w = ts.do(t, http.MethodPost, "/admin/categories/"+contactID+"/move?dir=sideways", adminID, "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/admin/categories/"+contactID+"/delete", adminID, "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	last := strconv.FormatInt(ts.defaultCategoryID(t), 10)
	w = ts.do(t, http.MethodPost, "/admin/categories/"+last+"/delete", adminID, "", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.get(t, "/admin/categories/edit?id=999", adminID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminFields(t *testing.T) {
	ts := newTestServer(t)
	catID := ts.defaultCategoryID(t)

	w := ts.postJSON(t, "/admin/fields", adminID, map[string]any{
		"category_id": catID,
		"datatype":    "menu",
		"short_name":  "colour",
		"name":        "Colour",
		"visible":     "private",
		"param1":      "red\ngreen",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created types.Field
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, types.VisiblePrivate, created.Visible)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"unknown datatype", map[string]any{"category_id": catID, "datatype": "colorpicker", "short_name": "x", "name": "X"}, http.StatusBadRequest},
		{"duplicate short name", map[string]any{"category_id": catID, "datatype": "text", "short_name": "colour", "name": "Y"}, http.StatusConflict},
		{"missing category", map[string]any{"category_id": 999, "datatype": "text", "short_name": "z", "name": "Z"}, http.StatusBadRequest},
		{"bad visibility", map[string]any{"category_id": catID, "datatype": "text", "short_name": "v", "name": "V", "visible": "secret"}, http.StatusBadRequest},
		{"missing name", map[string]any{"category_id": catID, "datatype": "text", "short_name": "n"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, ts.postJSON(t, "/admin/fields", adminID, tt.body).Code)
		})
	}

	w = ts.get(t, "/admin/fields", adminID)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Fields    []types.Field `json:"fields"`
		Datatypes []string      `json:"datatypes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Fields, 1)
	assert.Equal(t, "colour", listing.Fields[0].ShortName)
	assert.Contains(t, listing.Datatypes, "menu")

	id := strconv.FormatInt(created.ID, 10)
	w = ts.do(t, http.MethodPost, "/admin/fields/"+id+"/move?dir=down", adminID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"moved":false}`, w.Body.String())

	w = ts.do(t, http.MethodPost, "/admin/fields/"+id+"/delete", adminID, "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodPost, "/admin/fields/"+id+"/delete", adminID, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	w := ts.get(t, "/signup", 0)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/signup", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestInvalidCallerHeader(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/users/5/edit", nil)
	req.Header.Set(HeaderUserID, "root")
	w := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidPathID(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/users/abc/edit", ownerID).Code)
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/users/0", ownerID).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/metrics", 0).Code)

	metered := New(Options{Store: ts.backend, Checker: ts.srv.checker, Bundle: ts.srv.bundle, Metrics: true})
	req := httptest.NewRequest(http.MethodGet, "/signup", nil)
	w := httptest.NewRecorder()
	metered.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	metered.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "profilefields_requests_total")
}
