package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/lst-route-engine/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

// HandleError writes e with its status and code. Handlers that have already
// written a response must not call it.
func HandleError(c *gin.Context, e *common.HttpError) {
	c.AbortWithStatusJSON(e.StatusCode, Response{
		Success: false,
		Error:   e.Message,
		Code:    e.Code,
	})
}

func BadRequest(c *gin.Context, err string) {
	HandleError(c, common.HTTPErrorBadRequest(err))
}

func InternalError(c *gin.Context, err string) {
	HandleError(c, common.HTTPErrorInternalError(err))
}

func NotFound(c *gin.Context, err string) {
	HandleError(c, common.HTTPErrorNotFound(err))
}
