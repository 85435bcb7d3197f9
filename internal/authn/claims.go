package authn

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the registered claims of a bearer token, with a subject that may
// be encoded as a JSON string or an integer.
type Claims struct {
	jwt.RegisteredClaims
	Subject Subject `json:"sub,omitempty"`
}

func (c *Claims) GetSubject() (string, error) {
	return string(c.Subject), nil
}

// Subject is the "sub" claim in its textual form.
type Subject string

func (s *Subject) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Subject(text)
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var number json.Number
	if err := decoder.Decode(&number); err != nil {
		return fmt.Errorf("sub must be a string or a number: %w", err)
	}

	*s = Subject(number.String())
	return nil
}
