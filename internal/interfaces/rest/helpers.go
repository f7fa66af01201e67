package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/backoffice/internal/interfaces/middleware"
	"github.com/nexuscrm/backoffice/pkg/constants"
	"github.com/nexuscrm/backoffice/pkg/errors"
	"github.com/nexuscrm/backoffice/pkg/logging"
	"github.com/nexuscrm/backoffice/pkg/models"
)

// GetUserFromContext extracts the authenticated user from gin.Context
func GetUserFromContext(c *gin.Context) *models.UserSession {
	return middleware.UserFromContext(c.Request.Context())
}

// RespondAppError sends a standardised JSON error response using pkg/errors.
// Control-level validation failures are returned in data.
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	errorCode := errors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		logging.For("rest").WithError(err).Errorf("❌ ERROR [%d] %s %s", code, c.Request.Method, c.Request.URL.Path)
	}

	var data interface{}
	if details := errors.ToResponse(err).Details; details != nil {
		data = details
	}

	c.JSON(code, gin.H{
		constants.ResponseError:   message, // Legacy
		constants.ResponseMessage: message, // Standard
		"code":                    errorCode,
		"data":                    data,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleMutationEnvelope binds the body into obj, runs the action and
// returns its result wrapped + message
// Response: { message: successMsg, [key]: result } (key omitted if empty)
func HandleMutationEnvelope(c *gin.Context, status int, key, successMsg string, obj interface{}, action func() (interface{}, error)) {
	if obj != nil && !BindJSON(c, obj) {
		return
	}
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	response := gin.H{constants.ResponseMessage: successMsg}
	if key != "" {
		response[key] = result
	}
	c.JSON(status, response)
}

// HandleDeleteEnvelope executes a delete action and returns a success message
// Response: { message: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseMessage: successMsg})
}
