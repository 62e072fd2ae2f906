package handlers

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/cityhall/internal/errors"
)

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

// idParam is the :id path segment shared by every resource route.
type idParam struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

// PageQuery holds the search and paging parameters of list endpoints.
type PageQuery struct {
	Search string `form:"search" binding:"max=100"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
}

// bindID parses the :id segment. It writes the error response and returns
// false when the id is malformed.
func bindID(c *gin.Context) (int64, bool) {
	var p idParam
	if err := c.ShouldBindUri(&p); err != nil {
		respondBindError(c, err, "Invalid resource id")
		return 0, false
	}
	return p.ID, true
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondBindError(c, err, "Invalid query parameters")
		return false
	}
	return true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err, "Invalid request body")
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, err, "Invalid request body")
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error, message string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		apierrors.ValidationError(c, verrs)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// parseDate reads a date already checked by the datetime binding rule.
// Empty input yields nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
