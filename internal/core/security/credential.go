package security

// Credential is what the client presented. At most one of the fields is usually set;
// when both are, the bearer token wins.
type Credential struct {
	Bearer  string
	Session string
}

// IsEmpty reports whether no credential was presented.
func (c Credential) IsEmpty() bool {
	return c.Bearer == "" && c.Session == ""
}
