package handler

import (
	"errors"
	"log"
	"net/http"

	"kantong/internal/business"
	"kantong/internal/ledger"
	"kantong/internal/util"

	"github.com/gin-gonic/gin"
)

var errorStatus = []struct {
	err    error
	status int
	code   int
}{
	{ledger.ErrNotFound, http.StatusNotFound, util.CodeNotFound},
	{ledger.ErrWalletNotFound, http.StatusNotFound, util.CodeNotFound},
	{ledger.ErrFromWalletNotFound, http.StatusNotFound, util.CodeNotFound},
	{ledger.ErrToWalletNotFound, http.StatusNotFound, util.CodeNotFound},
	{ledger.ErrAlreadyExists, http.StatusConflict, util.CodeConflict},
	{ledger.ErrInsufficientBalance, http.StatusConflict, util.CodeConflict},
	{ledger.ErrNotEmpty, http.StatusConflict, util.CodeConflict},
	{ledger.ErrInvalidPeriod, http.StatusBadRequest, util.CodeInvalidParam},
	{ledger.ErrInvalidMonth, http.StatusBadRequest, util.CodeInvalidParam},
	{ledger.ErrInvalidAmount, http.StatusBadRequest, util.CodeInvalidParam},
	{ledger.ErrBalanceOutOfRange, http.StatusConflict, util.CodeConflict},
	{ledger.ErrInvalidWalletName, http.StatusBadRequest, util.CodeInvalidParam},
	{business.ErrBusinessNotFound, http.StatusNotFound, util.CodeNotFound},
	{business.ErrNoActiveSession, http.StatusConflict, util.CodeConflict},
}

// fail maps domain errors to a status; anything else is a 500 and is
// logged.
func fail(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			util.Error(c, e.status, e.code, err.Error())
			return
		}
	}
	log.Printf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal error")
}
