package entity

// Credential is the (principal, token) pair used once per run to open a
// publish session against the registry. It is never persisted; String
// and MarshalJSON redact the token so it cannot leak into logs or run
// output.
type Credential struct {
	Username string
	Token    string
}

func (c Credential) IsZero() bool {
	return c.Username == "" && c.Token == ""
}

func (c Credential) String() string {
	return c.Username + ":[redacted]"
}

func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.Username + `:[redacted]"`), nil
}
