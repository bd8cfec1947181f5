package retailopsserver

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// IdempotencyKeyHeader carries the client-chosen key for provisioning requests.
const IdempotencyKeyHeader = "Idempotency-Key"

// pathParam binds a required simple-style path parameter.
func pathParam(c *gin.Context, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &value, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err == nil && strings.TrimSpace(value) == "" {
		err = fmt.Errorf("path parameter %s is empty", name)
	}
	if err != nil {
		respondBadRequest(c, err)
		return "", false
	}
	return value, true
}

// pathParams binds several path parameters in order.
func pathParams(c *gin.Context, names ...string) ([]string, bool) {
	values := make([]string, 0, len(names))
	for _, name := range names {
		value, ok := pathParam(c, name)
		if !ok {
			return nil, false
		}
		values = append(values, value)
	}
	return values, true
}

// queryParam binds an optional or required form-style query parameter into dest.
func queryParam(c *gin.Context, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, c.Request.URL.Query(), dest); err != nil {
		respondBadRequest(c, err)
		return false
	}
	return true
}
