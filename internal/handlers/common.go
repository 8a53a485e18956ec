package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"barpos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// currentUserID pulls the authenticated user's ID out of the Gin context,
// where AuthMiddleware stored it. A missing or malformed value responds 401
// and returns false.
func currentUserID(c *gin.Context) (int64, bool) {
	userIDRaw, exists := c.Get("userID")
	if !exists {
		utils.LogError(errors.New("userID not found in context"), "currentUserID: userID not in context")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	userID, ok := userIDRaw.(int64)
	if !ok {
		utils.LogError(errors.New("userID is not of type int64"), "currentUserID: userID type assertion failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User ID format incorrect.", "Invalid user ID format in context"))
		return 0, false
	}
	return userID, true
}

// pathID parses the named path parameter as an int64 ID. A bad value responds
// 400 and returns false.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
