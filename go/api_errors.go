package retailopsserver

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/Apurer/retail-ops/internal/shared/errors"
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	apierrors.Respond(c, problem)
}

// respondServiceError classifies application errors by failure kind.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	apierrors.RespondError(c, err)
}

func respondBadRequest(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}

// bindJSON decodes the body or answers 400.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondBadRequest(c, err)
		return false
	}
	return true
}
