package engine

import (
	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
)

// ResultOf wraps a command outcome in the response envelope.
func ResultOf(data any, err error) models.Response {
	if err != nil {
		return models.Response{
			Success: false,
			Error:   err.Error(),
			Code:    string(apperr.CodeOf(err)),
		}
	}
	return models.Response{Success: true, Data: data}
}
