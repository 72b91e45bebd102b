package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/billing/internal/app/api/middleware"
	"github.com/fatflowers/billing/internal/app/service/token"
	"github.com/fatflowers/billing/pkg/response"
)

// @Summary      Token balance
// @Description  Returns the caller's balance. Once the cycle has ended the balance reads as zero with cycle bounds "0".
// @Tags         Tokens
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Success      200  {object}  handlers.RespTokenBalance
// @Router       /api/v1/tokens/balance [get]
func ApiTokenBalance(svc *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bal, err := svc.GetBalance(c.Request.Context(), mw.UserID(c))
		if err != nil {
			fail(c, "token_balance_error", err)
			return
		}
		ok(c, bal)
	}
}

// @Summary      Token history
// @Description  Latest token log entries for the caller, newest first.
// @Tags         Tokens
// @Produce      json
// @Param        X-User-ID header string true "caller id"
// @Success      200  {object}  handlers.RespTokenHistory
// @Router       /api/v1/tokens/history [get]
func ApiTokenHistory(svc *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := svc.History(c.Request.Context(), mw.UserID(c))
		if err != nil {
			fail(c, "token_history_error", err)
			return
		}
		ok(c, logs)
	}
}

// @Summary      Adjust tokens
// @Description  Applies consume, bonus or refund to a user's balance. Consuming more than the balance is rejected with 40900.
// @Tags         Tokens
// @Accept       json
// @Produce      json
// @Param        userId  path  string  true  "target user"
// @Param        request body token.AdjustRequest true "adjustment"
// @Success      200  {object}  handlers.RespTokenBalance
// @Router       /api/v1/tokens/adjust/{userId} [post]
func ApiTokenAdjust(svc *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req token.AdjustRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		bal, err := svc.Adjust(c.Request.Context(), c.Param("userId"), req)
		if err != nil {
			fail(c, "token_adjust_error", err)
			return
		}
		ok(c, bal)
	}
}

// @Summary      Top up tokens
// @Description  Adds tokens to a user's balance, creating it when missing.
// @Tags         Tokens
// @Accept       json
// @Produce      json
// @Param        userId  path  string  true  "target user"
// @Param        request body token.TopUpRequest true "top-up"
// @Success      200  {object}  handlers.RespTokenBalance
// @Router       /api/v1/tokens/topup/{userId} [post]
func ApiTokenTopUp(svc *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req token.TopUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		bal, err := svc.TopUp(c.Request.Context(), c.Param("userId"), req)
		if err != nil {
			fail(c, "token_topup_error", err)
			return
		}
		ok(c, bal)
	}
}

// selfOrAdmin lets callers write their own balance; admins may write any.
func selfOrAdmin(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param(param) != mw.UserID(c) && !mw.IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeForbidden, "cannot change another user's tokens"))
			return
		}
		c.Next()
	}
}

func RegisterTokenRoutes(r gin.IRouter, svc *token.Service) {
	g := r.Group("/tokens")
	g.GET("/balance", ApiTokenBalance(svc))
	g.GET("/history", ApiTokenHistory(svc))
	g.POST("/adjust/:userId", selfOrAdmin("userId"), ApiTokenAdjust(svc))
	g.POST("/topup/:userId", selfOrAdmin("userId"), ApiTokenTopUp(svc))
}
