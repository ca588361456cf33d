package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yoockh/brdextractor/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Kind    utils.Kind `json:"kind,omitempty"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(utils.HTTPStatus(err), APIError{
		Code:    utils.CodeOf(err),
		Kind:    utils.KindOf(err),
		Message: utils.UserMessage(err),
	})
}
