// Package handlers implements the HTTP endpoints of the dispatch API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridewave/dispatch/internal/application/dto"
	"github.com/ridewave/dispatch/pkg/errors"
)

func respondError(c *gin.Context, err error) {
	status, body := dto.NewErrorResponse(err)
	c.JSON(status, body)
}

func respondBindError(c *gin.Context, err error) {
	respondError(c, errors.ErrInvalidRequest(err.Error()))
}

func respondOK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}
