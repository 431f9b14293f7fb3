package petapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Messages shown to the user for failed requests, keyed by HTTP status.
// Status 0 means the server could not be reached.
var statusMessages = map[int]string{
	0:                              "Não foi possível conectar ao servidor. Verifique sua conexão.",
	http.StatusBadRequest:          "Dados inválidos. Verifique as informações enviadas.",
	http.StatusForbidden:           "Você não tem permissão para realizar esta ação.",
	http.StatusNotFound:            "Recurso não encontrado.",
	http.StatusTooManyRequests:     "Muitas requisições. Aguarde um momento e tente novamente.",
	http.StatusInternalServerError: "Erro interno do servidor. Tente novamente mais tarde.",
	http.StatusServiceUnavailable:  "Serviço indisponível. Tente novamente mais tarde.",
}

// UserMessage returns the user-facing message for status. 401 is never
// translated: the request pipeline resolves it first.
func UserMessage(status int) (string, bool) {
	if status == http.StatusUnauthorized {
		return "", false
	}
	msg, ok := statusMessages[status]
	return msg, ok
}

// ErrorResponse is the error body returned by the API.
type ErrorResponse struct {
	Timestamp string `json:"timestamp,omitempty"`
	Status    int    `json:"status"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Path      string `json:"path,omitempty"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Response   *ErrorResponse
	Body       string
	// RequestID is the X-Request-Id the failing request carried.
	RequestID string
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if resp.Request != nil {
		apiErr.RequestID = resp.Request.Header.Get(RequestIDHeader)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	apiErr.Body = strings.TrimSpace(string(data))

	var errResp ErrorResponse
	if json.Unmarshal(data, &errResp) == nil && (errResp.Message != "" || errResp.Error != "") {
		apiErr.Response = &errResp
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e.Response != nil {
		detail := e.Response.Message
		if detail == "" {
			detail = e.Response.Error
		}
		return fmt.Sprintf("pet manager API error %d: %s", e.StatusCode, detail)
	}
	if e.Body != "" && len(e.Body) <= 200 {
		return fmt.Sprintf("pet manager API error %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("pet manager API error %d", e.StatusCode)
}

// UserMessage returns the translated message for the error's status.
func (e *APIError) UserMessage() (string, bool) {
	return UserMessage(e.StatusCode)
}
