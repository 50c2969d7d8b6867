package router

import (
	"github.com/gin-gonic/gin"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/infrastructure/auth"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/handler"
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/interfaces/http/middleware"
)

// Handlers are the handlers the commission API serves
type Handlers struct {
	Invoices *handler.InvoiceHandler
	Orders   *handler.OrderHandler
	Reviews  *handler.ReviewHandler
	System   *handler.SystemHandler
}

// RegisterCommission mounts the commission API on r and the health check on
// engine. authChain runs before the role check of every protected group;
// it holds the JWT middleware and anything that needs the claims.
func RegisterCommission(engine *gin.Engine, r *Router, h Handlers, authChain ...gin.HandlerFunc) {
	engine.GET("/health", h.System.Health)

	protected := func(name, prefix string, roles ...string) *DomainGroup {
		return NewDomainGroup(name, prefix).
			Use(authChain...).
			Use(middleware.RequireAnyRole(roles...))
	}

	// Partners read their own invoices; admins read any
	invoices := protected("commission", "/commission", auth.RolePartner, auth.RoleAdmin).
		GET("/invoices", h.Invoices.List).
		GET("/invoices/:id", h.Invoices.Get).
		GET("/invoices/:id/pdf", h.Invoices.GetPDF)

	// Service-to-service callbacks: the order service and the PDF renderer
	internal := protected("internal", "/internal", auth.RoleService).
		POST("/orders/completed", h.Orders.Completed).
		POST("/invoices/:id/pdf", h.Invoices.AttachPDF)

	admin := protected("commission-admin", "/admin/commission", auth.RoleAdmin).
		GET("/review-cases", h.Reviews.ListCases).
		POST("/review-cases/:id/resolve", h.Reviews.ResolveCase).
		POST("/invoices/:id/accounting/retry", h.Reviews.RetryAccounting).
		GET("/orders/:orderId/ledger", h.Reviews.OrderLedger)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	r.Register(invoices).
		Register(internal).
		Register(admin).
		Register(system)
}
