package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/customer"
	"github.com/fatflowers/billing/internal/ledger"
	"github.com/fatflowers/billing/internal/models"
)

// @Summary      Create customer
// @Description  Creates a gateway customer for the caller. Missing fields fall back to the X-User-Name, X-User-Email and X-User-Contact headers.
// @Tags         Customers
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Param        request body customer.Request true "customer"
// @Success      200  {object}  handlers.RespCustomer
// @Router       /api/v1/customer [post]
func ApiCreateCustomer(svc *customer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customer.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		name, email, contact := mw.Profile(c)
		who := customer.Identity{UserID: mw.UserID(c), Name: name, Email: email, Contact: contact}
		cust, err := svc.Create(c.Request.Context(), who, req)
		if err != nil {
			fail(c, "customer_create_error", err)
			return
		}
		ok(c, cust)
	}
}

// ownedCustomer loads customerId and hides other users' records from
// non-admin callers.
func ownedCustomer(c *gin.Context, svc *customer.Service) (*models.Customer, error) {
	cust, err := svc.Get(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		return nil, err
	}
	if !mw.IsAdmin(c) && models.Str(cust.UserID) != mw.UserID(c) {
		return nil, fmt.Errorf("customer %s: %w", cust.CustomerID, ledger.ErrNotFound)
	}
	return cust, nil
}

// @Summary      Update customer
// @Description  Sends name, contact and email to the gateway, each taken from the request when present and from the stored record otherwise.
// @Tags         Customers
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header string true "caller id"
// @Param        customerId path   string true "gateway customer id"
// @Param        request body customer.Request true "changes"
// @Success      200  {object}  handlers.RespCustomer
// @Router       /api/v1/customer/{customerId} [put]
func ApiUpdateCustomer(svc *customer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customer.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if _, err := ownedCustomer(c, svc); err != nil {
			fail(c, "customer_update_error", err)
			return
		}
		cust, err := svc.Update(c.Request.Context(), c.Param("customerId"), req)
		if err != nil {
			fail(c, "customer_update_error", err)
			return
		}
		ok(c, cust)
	}
}

// @Summary      Get customer
// @Tags         Customers
// @Produce      json
// @Param        X-User-ID  header string true "caller id"
// @Param        customerId path   string true "gateway customer id"
// @Success      200  {object}  handlers.RespCustomer
// @Router       /api/v1/customer/{customerId} [get]
func ApiGetCustomer(svc *customer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cust, err := ownedCustomer(c, svc)
		if err != nil {
			fail(c, "customer_get_error", err)
			return
		}
		ok(c, cust)
	}
}

// @Summary      List customers (Admin)
// @Tags         Customers
// @Produce      json
// @Param        X-User-Role header string true  "must be admin"
// @Param        user_id     query  string false "only this user's customers"
// @Success      200  {object}  handlers.RespCustomers
// @Router       /api/v1/customers [get]
func ApiListCustomers(svc *customer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.List(c.Request.Context(), c.Query("user_id"))
		if err != nil {
			fail(c, "customer_list_error", err)
			return
		}
		ok(c, list)
	}
}

func RegisterCustomerRoutes(r gin.IRouter, svc *customer.Service) {
	r.POST("/customer", ApiCreateCustomer(svc))
	r.PUT("/customer/:customerId", ApiUpdateCustomer(svc))
	r.GET("/customer/:customerId", ApiGetCustomer(svc))
	r.GET("/customers", mw.RequireAdmin(), ApiListCustomers(svc))
}
