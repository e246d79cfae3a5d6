package handler

import (
	"time"

	"clearancehub/pkg/apperrors"
	"clearancehub/pkg/response"

	"github.com/gin-gonic/gin"
)

// fail maps a service error onto the wire: typed errors keep their message,
// anything else is reported as a generic internal error.
func fail(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == 500 {
		message = "internal server error"
	}
	c.JSON(status, response.Error(status, message))
}

const dateLayout = "2006-01-02"

// parseDateQuery reads an optional YYYY-MM-DD query parameter. endOfDay
// pushes the bound to the last instant of that date for inclusive ranges.
func parseDateQuery(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperrors.Validation("invalid " + name + ", expected YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
