package sharepoint

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ODataError is a non-2xx answer from SharePoint. Message holds the text the
// service returned so it can be shown to the user unchanged.
type ODataError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ODataError) Error() string {
	return e.Message
}

type odataMessage struct {
	Value string `json:"value"`
}

type odataBody struct {
	Code    string          `json:"code"`
	Message json.RawMessage `json:"message"`
}

// newODataError extracts the message from the verbose (odata.error) and
// minimal (error) OData error shapes, falling back to the raw body.
func newODataError(status int, body []byte) *ODataError {
	e := &ODataError{StatusCode: status}

	var payload struct {
		OData *odataBody `json:"odata.error"`
		Error *odataBody `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		b := payload.OData
		if b == nil {
			b = payload.Error
		}
		if b != nil {
			e.Code = b.Code
			e.Message = b.message()
		}
	}

	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	return e
}

func (b *odataBody) message() string {
	if len(b.Message) == 0 {
		return ""
	}
	var m odataMessage
	if err := json.Unmarshal(b.Message, &m); err == nil && m.Value != "" {
		return m.Value
	}
	var s string
	if err := json.Unmarshal(b.Message, &s); err == nil {
		return s
	}
	return ""
}
