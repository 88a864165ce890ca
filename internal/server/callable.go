package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/iamvkosarev/marvel-ai-chat/internal/model"
	"github.com/labstack/echo/v4"
)

const maxRequestBodySize = 10 << 20

type callableRequest struct {
	Data json.RawMessage `json:"data"`
}

type callableResult struct {
	Result any `json:"result"`
}

type callableErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type callableError struct {
	Error callableErrorBody `json:"error"`
}

var errorKindStatuses = map[model.ErrorKind]struct {
	status string
	code   int
}{
	model.ErrorKindValidation:    {status: "INVALID_ARGUMENT", code: http.StatusBadRequest},
	model.ErrorKindAuthorization: {status: "PERMISSION_DENIED", code: http.StatusForbidden},
	model.ErrorKindNotFound:      {status: "NOT_FOUND", code: http.StatusNotFound},
	model.ErrorKindInternal:      {status: "INTERNAL", code: http.StatusInternalServerError},
}

// bindCallable decodes the {"data": ...} envelope into target. An absent or
// null data field leaves target untouched.
func bindCallable(c echo.Context, target any) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBodySize))
	if err != nil {
		return model.NewValidationError("failed to read request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var req callableRequest
	if err = json.Unmarshal(raw, &req); err != nil {
		return model.NewValidationError("request body must be a JSON object with a data field")
	}
	if len(req.Data) == 0 || string(req.Data) == "null" {
		return nil
	}
	if err = json.Unmarshal(req.Data, target); err != nil {
		return model.NewValidationError("invalid request data: " + err.Error())
	}
	return nil
}

func writeResult(c echo.Context, result any) error {
	return c.JSON(http.StatusOK, callableResult{Result: result})
}

func writeError(c echo.Context, err error) error {
	typed := model.AsError(err)
	status, ok := errorKindStatuses[typed.Kind]
	if !ok {
		status = errorKindStatuses[model.ErrorKindInternal]
	}
	return c.JSON(
		status.code, callableError{
			Error: callableErrorBody{Status: status.status, Message: typed.Message},
		},
	)
}

func writeUnauthenticated(c echo.Context) error {
	return c.JSON(
		http.StatusUnauthorized, callableError{
			Error: callableErrorBody{Status: "UNAUTHENTICATED", Message: ErrInvalidToken.Error()},
		},
	)
}
