package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/middleware"
)

// API bundles the resource handlers mounted under /api/v1.
type API struct {
	Citizens     *CitizenHandler
	Properties   *PropertyHandler
	TaxPeriods   *TaxPeriodHandler
	HoldingTaxes *HoldingTaxHandler
	Dashboards   *DashboardHandler
}

// RegisterRoutes mounts every resource route on v1. v1 must already
// authenticate its requests. Route-level role gates mirror the checks in
// the services, so unauthorized callers are refused before any body is read.
func RegisterRoutes(v1 *gin.RouterGroup, api API) {
	staff := middleware.RequireRoles(auth.RoleFieldOfficer, auth.RoleOfficer)

	citizens := v1.Group("/citizens", staff)
	{
		citizens.GET("", api.Citizens.List)
		citizens.POST("", api.Citizens.Create)
		citizens.GET("/:id", api.Citizens.Get)
		citizens.PATCH("/:id/contact", api.Citizens.UpdateContact)
		citizens.POST("/:id/deactivate", api.Citizens.Deactivate)
		citizens.POST("/:id/activate", api.Citizens.Activate)
		citizens.DELETE("/:id", api.Citizens.Delete)
	}

	properties := v1.Group("/properties", staff)
	{
		properties.GET("", api.Properties.List)
		properties.POST("", api.Properties.Create)
		properties.GET("/:id", api.Properties.Get)
		properties.PUT("/:id", api.Properties.Update)
		properties.DELETE("/:id", api.Properties.Delete)
		properties.POST("/:id/submit", api.Properties.Submit)
		properties.POST("/:id/approve", api.Properties.Approve)
		properties.POST("/:id/reject", api.Properties.Reject)
	}

	periods := v1.Group("/tax-periods")
	{
		periods.GET("", api.TaxPeriods.List)
		periods.POST("", api.TaxPeriods.Create)
		periods.GET("/:id", api.TaxPeriods.Get)
		periods.PUT("/:id", api.TaxPeriods.Update)
		periods.DELETE("/:id", api.TaxPeriods.Delete)
	}

	ledger := v1.Group("/holding-taxes", staff)
	{
		ledger.GET("", api.HoldingTaxes.List)
		ledger.POST("", api.HoldingTaxes.Create)
		ledger.GET("/:id", api.HoldingTaxes.Get)
		ledger.PUT("/:id", api.HoldingTaxes.Update)
		ledger.DELETE("/:id", api.HoldingTaxes.Delete)
		ledger.POST("/:id/payments", api.HoldingTaxes.RecordPayment)
		ledger.GET("/:id/payments", api.HoldingTaxes.ListPayments)
		ledger.POST("/:id/approve", api.HoldingTaxes.Approve)
		ledger.POST("/:id/reject", api.HoldingTaxes.Reject)
	}

	officer := v1.Group("/officer", middleware.RequireRoles(auth.RoleOfficer))
	{
		officer.GET("/properties", api.Properties.PendingQueue)
		officer.GET("/holding-taxes", api.HoldingTaxes.PendingQueue)
	}

	dashboard := v1.Group("/dashboard")
	{
		dashboard.GET("/field-officer", middleware.RequireRoles(auth.RoleFieldOfficer), api.Dashboards.FieldOfficer)
		dashboard.GET("/officer", middleware.RequireRoles(auth.RoleOfficer), api.Dashboards.Officer)
		dashboard.GET("/citizen", middleware.RequireRoles(auth.RoleCitizen), api.Dashboards.Citizen)
	}

	me := v1.Group("/me", middleware.RequireRoles(auth.RoleCitizen))
	{
		me.GET("/properties", api.Properties.Mine)
		me.GET("/holding-taxes", api.HoldingTaxes.Mine)
	}
}
