package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"communityboard/pkg/apperr"
	"communityboard/pkg/response"
)

const (
	muxVarUserID    = "user_id"
	muxVarPostID    = "post_id"
	muxVarCommentID = "comment_id"

	maxBodyBytes = 1 << 20
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeJSONBody reads a JSON body into req and validates it. On failure the
// error envelope is already written.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, req any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		response.Fail(w, logger, apperr.ErrBadRequest, map[string]string{"contentType": "INVALID_FORMAT"})
		return false
	}

	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(req); err != nil {
		response.Fail(w, logger, apperr.ErrBadRequest, map[string]string{"body": "INVALID_FORMAT"})
		return false
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = reason(fe.Tag())
			}
			response.Fail(w, logger, apperr.ErrInvalidInput, details)
			return false
		}
		response.Error(w, logger, err)
		return false
	}
	return true
}

func reason(tag string) string {
	switch tag {
	case "required":
		return "REQUIRED"
	case "min":
		return "TOO_SHORT"
	case "max":
		return "TOO_LONG"
	default:
		return "INVALID_FORMAT"
	}
}
