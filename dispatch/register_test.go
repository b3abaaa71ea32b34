package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/terrafocus/lease_backend/appctx"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testModes = NewModeTable("widget", OpCreate, OpGetById, OpDelete)

func testRouter(handlers map[Op]HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterFamily(r, "/Master/widget", testModes, handlers)
	return r
}

func postEnvelope(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/Master/widget", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestRegisterFamilyDispatchesByMode(t *testing.T) {
	r := testRouter(map[Op]HandlerFunc{
		OpCreate: func(ctx context.Context, params Params) (*Response, error) {
			name, _ := params.String("WidgetName")
			return OK().WithNewID("Widget", 7).WithData(map[string]any{"WidgetName": name}), nil
		},
	})

	w, resp := postEnvelope(t, r, `{"mode":1,"parameters":{"WidgetName":"gear"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusSuccess, resp.Status)

	var newId int
	require.NoError(t, resp.DecodeField("NewWidgetID", &newId))
	assert.Equal(t, 7, newId)
}

func TestRegisterFamilyUnknownModeFailsWithStatusOK(t *testing.T) {
	r := testRouter(map[Op]HandlerFunc{})

	w, resp := postEnvelope(t, r, `{"mode":99,"parameters":{}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusFailure, resp.Status)
	assert.Contains(t, resp.Message, "unknown mode 99")
}

func TestRegisterFamilyMissingHandlerFails(t *testing.T) {
	r := testRouter(map[Op]HandlerFunc{})

	w, resp := postEnvelope(t, r, `{"mode":2,"parameters":{}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusFailure, resp.Status)
	assert.Contains(t, resp.Message, "not implemented")
}

func TestRegisterFamilyBadEnvelopeFails(t *testing.T) {
	r := testRouter(map[Op]HandlerFunc{})

	w, resp := postEnvelope(t, r, `{"mode":"one"`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusFailure, resp.Status)
	assert.Contains(t, resp.Message, "invalid request envelope")
}

func TestRegisterFamilyHandlerErrorBecomesFailure(t *testing.T) {
	r := testRouter(map[Op]HandlerFunc{
		OpDelete: func(ctx context.Context, params Params) (*Response, error) {
			return nil, errors.New("widget is referenced by an active contract")
		},
	})

	w, resp := postEnvelope(t, r, `{"mode":3,"parameters":{"WidgetID":4}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusFailure, resp.Status)
	assert.Equal(t, "widget is referenced by an active contract", resp.Message)
}

func TestRegisterFamilyLiftsPrincipalIntoContext(t *testing.T) {
	var gotCompany, gotUser int
	var gotName string
	r := testRouter(map[Op]HandlerFunc{
		OpGetById: func(ctx context.Context, params Params) (*Response, error) {
			gotCompany, _ = appctx.GetInt(ctx, appctx.ContextKeyCompanyId)
			gotUser, _ = appctx.GetInt(ctx, appctx.ContextKeyUserId)
			gotName, _ = appctx.GetString(ctx, appctx.ContextKeyUserName)
			return OK(), nil
		},
	})

	_, resp := postEnvelope(t, r,
		`{"mode":2,"parameters":{"WidgetID":1,"CompanyID":"3","CurrentUserID":12,"CurrentUserName":"sara"}}`)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, 3, gotCompany)
	assert.Equal(t, 12, gotUser)
	assert.Equal(t, "sara", gotName)
}

func TestRegisterFamilyNilResponseBecomesOK(t *testing.T) {
	r := testRouter(map[Op]HandlerFunc{
		OpGetById: func(ctx context.Context, params Params) (*Response, error) {
			return nil, nil
		},
	})

	_, resp := postEnvelope(t, r, `{"mode":2,"parameters":{}}`)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, "Success", resp.Message)
}
