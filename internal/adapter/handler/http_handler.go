package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	"github.com/rl1809/invoice-dashboard/internal/core/service"
)

const (
	SessionCookie = "session"

	dashboardPath = "/dashboard"
	loginPath     = "/login"
	maxFormMemory = 1 << 20
)

type InvoiceUseCase interface {
	CreateInvoice(ctx context.Context, prev service.State, form service.FormData) service.Result
	UpdateInvoice(ctx context.Context, id string, prev service.State, form service.FormData) service.Result
	DeleteInvoice(ctx context.Context, id string) service.State
	ListInvoices(ctx context.Context, query string, page int) (domain.InvoicePage, error)
	CreateInvoiceForm(ctx context.Context) (service.InvoiceForm, error)
	EditInvoiceForm(ctx context.Context, id string) (service.InvoiceForm, error)
}

type AuthUseCase interface {
	Authenticate(ctx context.Context, prev string, form service.FormData) (service.AuthOutcome, error)
}

type HTTPHandler struct {
	invoices     InvoiceUseCase
	auth         AuthUseCase
	secureCookie bool
}

type messageResponse struct {
	Message string `json:"message"`
}

func NewHTTPHandler(invoices InvoiceUseCase, auth AuthUseCase, secureCookie bool) *HTTPHandler {
	return &HTTPHandler{invoices: invoices, auth: auth, secureCookie: secureCookie}
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) ListInvoices(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))

	result, err := h.invoices.ListInvoices(c.Request.Context(), c.Query("query"), page)
	if err != nil {
		log.Printf("[invoice][handler] list failed query=%q page=%d err=%v", c.Query("query"), page, err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to fetch invoices."})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *HTTPHandler) CreateInvoiceForm(c *gin.Context) {
	form, err := h.invoices.CreateInvoiceForm(c.Request.Context())
	if err != nil {
		log.Printf("[invoice][handler] create form failed err=%v", err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to fetch customers."})
		return
	}

	c.JSON(http.StatusOK, form)
}

func (h *HTTPHandler) EditInvoiceForm(c *gin.Context) {
	id := c.Param("id")

	form, err := h.invoices.EditInvoiceForm(c.Request.Context(), id)
	if errors.Is(err, domain.ErrInvoiceNotFound) {
		c.JSON(http.StatusNotFound, messageResponse{Message: "Invoice not found."})
		return
	}
	if err != nil {
		log.Printf("[invoice][handler] edit form failed invoice_id=%s err=%v", id, err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "Failed to fetch invoice."})
		return
	}

	c.JSON(http.StatusOK, form)
}

func (h *HTTPHandler) CreateInvoice(c *gin.Context) {
	form, err := readForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}

	h.writeResult(c, h.invoices.CreateInvoice(c.Request.Context(), service.State{}, form))
}

func (h *HTTPHandler) UpdateInvoice(c *gin.Context) {
	form, err := readForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}

	h.writeResult(c, h.invoices.UpdateInvoice(c.Request.Context(), c.Param("id"), service.State{}, form))
}

func (h *HTTPHandler) DeleteInvoice(c *gin.Context) {
	state := h.invoices.DeleteInvoice(c.Request.Context(), c.Param("id"))
	if state.Message != service.InvoiceDeletedMessage {
		c.JSON(http.StatusInternalServerError, state)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *HTTPHandler) Login(c *gin.Context) {
	form, err := readForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return
	}

	outcome, err := h.auth.Authenticate(c.Request.Context(), "", form)
	if err != nil {
		log.Printf("[auth][handler] sign-in error err=%v", err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "internal error"})
		return
	}
	if outcome.Session == nil {
		c.JSON(http.StatusUnauthorized, messageResponse{Message: outcome.Message})
		return
	}

	session := outcome.Session
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, session.Token, maxAge, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusSeeOther, safeRedirect(form["redirectTo"]))
}

func (h *HTTPHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusSeeOther, loginPath)
}

func (h *HTTPHandler) writeResult(c *gin.Context, result service.Result) {
	if result.Redirected() {
		c.Redirect(http.StatusSeeOther, result.RedirectTo)
		return
	}
	if len(result.State.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, result.State)
		return
	}
	c.JSON(http.StatusInternalServerError, result.State)
}

// readForm collects the first value of every submitted field from a url-encoded,
// multipart or flat JSON body. Null JSON values count as absent.
func readForm(c *gin.Context) (service.FormData, error) {
	form := service.FormData{}

	if c.ContentType() == binding.MIMEJSON {
		var body map[string]interface{}
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		for k, v := range body {
			switch val := v.(type) {
			case nil:
			case string:
				form[k] = val
			case json.Number:
				form[k] = val.String()
			case bool:
				form[k] = strconv.FormatBool(val)
			default:
				return nil, fmt.Errorf("field %s: unsupported value", k)
			}
		}
		return form, nil
	}

	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			form[k] = v[0]
		}
	}
	return form, nil
}

// safeRedirect keeps post-login navigation on this site.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return dashboardPath
	}
	return target
}
