package config

import (
	"context"
	"strings"

	"bitbucket.org/terrafocus/lease_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompanyGuardPlugin enforces multi-company isolation by automatically scoping
// queries/updates/deletes to the request's company_id when the model has a company_id column.
//
// NOTE:
// - This does NOT apply to Raw SQL queries. Those must include company_id manually.
// - Admin/internal bypass is explicit via context flags.
type CompanyGuardPlugin struct{}

func NewCompanyGuardPlugin() *CompanyGuardPlugin { return &CompanyGuardPlugin{} }

func (p *CompanyGuardPlugin) Name() string { return "company_guard" }

func (p *CompanyGuardPlugin) Initialize(db *gorm.DB) error {
	// Query
	if err := db.Callback().Query().Before("gorm:query").Register("company_guard:query", companyGuardCallback); err != nil {
		return err
	}
	// Row (First/Take)
	if err := db.Callback().Row().Before("gorm:row").Register("company_guard:row", companyGuardCallback); err != nil {
		return err
	}
	// Update
	if err := db.Callback().Update().Before("gorm:update").Register("company_guard:update", companyGuardCallback); err != nil {
		return err
	}
	// Delete
	if err := db.Callback().Delete().Before("gorm:delete").Register("company_guard:delete", companyGuardCallback); err != nil {
		return err
	}
	return nil
}

func companyGuardCallback(db *gorm.DB) {
	if db == nil || db.Statement == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	if shouldBypassCompanyScope(ctx) {
		return
	}
	companyID := companyIdFromContext(ctx)
	if companyID == 0 {
		return
	}

	// Only apply if the current model/table includes a company_id column.
	if db.Statement.Schema == nil {
		return
	}
	hasCompanyID := false
	for _, f := range db.Statement.Schema.Fields {
		if strings.EqualFold(f.DBName, "company_id") {
			hasCompanyID = true
			break
		}
	}
	if !hasCompanyID {
		return
	}

	// Don't duplicate an explicit company filter.
	if whereHasCompanyID(db.Statement.Clauses["WHERE"]) {
		return
	}

	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: db.Statement.Table, Name: "company_id"},
				Value:  companyID,
			},
		},
	})
}

func companyIdFromContext(ctx context.Context) int {
	if v, ok := ctx.Value(appctx.ContextKeyCompanyId).(int); ok && v > 0 {
		return v
	}
	return 0
}

func shouldBypassCompanyScope(ctx context.Context) bool {
	if v, ok := ctx.Value(appctx.ContextKeySkipCompanyScope).(bool); ok && v {
		return true
	}
	return false
}

func whereHasCompanyID(c clause.Clause) bool {
	if c.Expression == nil {
		return false
	}
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if exprHasCompanyID(e) {
			return true
		}
	}
	return false
}

func exprHasCompanyID(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return colIsCompanyID(v.Column)
	case clause.Neq:
		return colIsCompanyID(v.Column)
	case clause.Gt:
		return colIsCompanyID(v.Column)
	case clause.Gte:
		return colIsCompanyID(v.Column)
	case clause.Lt:
		return colIsCompanyID(v.Column)
	case clause.Lte:
		return colIsCompanyID(v.Column)
	case clause.IN:
		return colIsCompanyID(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if exprHasCompanyID(x) {
				return true
			}
		}
		return false
	case clause.OrConditions:
		for _, x := range v.Exprs {
			if exprHasCompanyID(x) {
				return true
			}
		}
		return false
	case clause.Expr:
		// Best-effort for raw expressions.
		return strings.Contains(strings.ToLower(v.SQL), "company_id")
	default:
		return false
	}
}

func colIsCompanyID(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "company_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "company_id")
	default:
		return false
	}
}
