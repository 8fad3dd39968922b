package handler

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(h *HTTPHandler, verifier SessionVerifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", h.HealthCheck)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	invoices := r.Group("/dashboard/invoices", RequireSession(verifier))
	invoices.GET("", h.ListInvoices)
	invoices.GET("/create", h.CreateInvoiceForm)
	invoices.POST("", h.CreateInvoice)
	invoices.GET("/:id/edit", h.EditInvoiceForm)
	invoices.POST("/:id", h.UpdateInvoice)
	invoices.PUT("/:id", h.UpdateInvoice)
	invoices.POST("/:id/delete", h.DeleteInvoice)
	invoices.DELETE("/:id", h.DeleteInvoice)

	return r
}
