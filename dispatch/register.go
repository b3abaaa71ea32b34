package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"bitbucket.org/terrafocus/lease_backend/appctx"
	"github.com/gin-gonic/gin"
)

type HandlerFunc func(ctx context.Context, params Params) (*Response, error)

// principalContext lifts the caller identity out of the parameter bag.
// The session middleware already authenticated the token; these fields
// scope the request to a tenant and a user.
func principalContext(ctx context.Context, params Params) context.Context {
	if companyId, ok := params.Int("CompanyID"); ok && companyId > 0 {
		ctx = appctx.Set(ctx, appctx.ContextKeyCompanyId, companyId)
	}
	if userId, ok := params.Int("CurrentUserID"); ok && userId > 0 {
		ctx = appctx.Set(ctx, appctx.ContextKeyUserId, userId)
	}
	if userName, ok := params.String("CurrentUserName"); ok && userName != "" {
		ctx = appctx.Set(ctx, appctx.ContextKeyUserName, userName)
	}
	return ctx
}

// RegisterFamily mounts one entity family at its dispatch path. Every op in
// the table must have a handler; the exhaustiveness test keeps the maps in
// step with the tables.
func RegisterFamily(r gin.IRoutes, path string, table *ModeTable, handlers map[Op]HandlerFunc) {
	r.POST(path, func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, Fail("invalid request envelope: "+err.Error()))
			return
		}

		op, ok := table.OpFor(req.Mode)
		if !ok {
			c.JSON(http.StatusOK, Fail(fmt.Sprintf("unknown mode %d for %s", req.Mode, table.Family())))
			return
		}
		handler, ok := handlers[op]
		if !ok {
			c.JSON(http.StatusOK, Fail(fmt.Sprintf("mode %d (%s) is not implemented for %s", req.Mode, op, table.Family())))
			return
		}

		if req.Parameters == nil {
			req.Parameters = Params{}
		}
		ctx := principalContext(c.Request.Context(), req.Parameters)

		resp, err := handler(ctx, req.Parameters)
		if err != nil {
			c.JSON(http.StatusOK, Fail(err.Error()))
			return
		}
		if resp == nil {
			resp = OK()
		}
		c.JSON(http.StatusOK, resp)
	})
}
