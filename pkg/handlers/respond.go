package handlers

import (
	"errors"
	"net/http"
	"reflect"

	"headless-cms/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/morikuni/failure"
	"github.com/rs/zerolog/log"
)

func init() {
	// Report query parameter names rather than struct field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("form")
		})
	}
}

// prettyJSON renders indented JSON without escaping HTML, the way the CMS
// content is meant to be read.
type prettyJSON struct {
	Data interface{}
}

var jsonContentType = []string{"application/json; charset=utf-8"}

func (r prettyJSON) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(r.Data)
}

func (r prettyJSON) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = jsonContentType
	}
}

func respond(c *gin.Context, obj gin.H) {
	obj["success"] = true
	c.Render(http.StatusOK, prettyJSON{obj})
}

func statusOf(err error) int {
	code, ok := failure.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case services.ErrInvalidArgument:
		return http.StatusBadRequest
	case services.ErrNotFound, services.ErrBlogUnavailable:
		return http.StatusNotFound
	case services.ErrUnauthorized:
		return http.StatusUnauthorized
	case services.ErrForbidden:
		return http.StatusForbidden
	case services.ErrDisabled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func messageOf(err error, status int) string {
	if msg, ok := failure.MessageOf(err); ok && msg != "" {
		return msg
	}
	if status == http.StatusInternalServerError {
		return "Internal server error"
	}
	return http.StatusText(status)
}

// abortWithError writes {"error": ...} with the status matching the error
// code. Errors without a known code are logged and reported as 500.
func abortWithError(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Stack().Err(err).Str("path", c.Request.URL.String()).Msg("request failed")
	}
	c.Error(err)
	c.Abort()
	c.Render(status, prettyJSON{gin.H{"error": messageOf(err, status)}})
}

// bindQuery binds the optional numeric query parameters into req.
func bindQuery(c *gin.Context, req interface{}) error {
	err := c.ShouldBindQuery(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return failure.New(services.ErrInvalidArgument,
			failure.Messagef("Invalid %s parameter", verrs[0].Field()))
	}
	return failure.Translate(err, services.ErrInvalidArgument,
		failure.Message("Invalid query parameter: integer expected"))
}

// requireQuery returns a query parameter that must be present. An empty
// value counts as present.
func requireQuery(c *gin.Context, name, missing string) (string, error) {
	v, ok := c.GetQuery(name)
	if !ok {
		return "", failure.New(services.ErrInvalidArgument, failure.Message(missing))
	}
	return v, nil
}
