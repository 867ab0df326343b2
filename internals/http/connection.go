package http

type Auth struct {
	Key   string
	Value string
}

type Connection interface {
	auth() *Auth
	getUrl() string
	verifyCertificate() bool
}

// TokenConnection authenticates every request with the signed token the
// gateway handed out at login.
type TokenConnection struct {
	url        string
	verifyCert bool
	token      string
}

func (c *TokenConnection) auth() *Auth {
	if len(c.token) > 0 {
		key := "Authorization"
		value := "Bearer " + c.token
		return &Auth{Key: key, Value: value}
	}
	return nil
}

func (c *TokenConnection) getUrl() string {
	return c.url
}

func (c *TokenConnection) verifyCertificate() bool {
	return c.verifyCert
}

// AnonymousConnection carries no credentials. It is used for the login and
// registration endpoints, which are the only ones the gateway serves
// unauthenticated.
type AnonymousConnection struct {
	url        string
	verifyCert bool
}

func (c *AnonymousConnection) auth() *Auth {
	return nil
}

func (c *AnonymousConnection) getUrl() string {
	return c.url
}

func (c *AnonymousConnection) verifyCertificate() bool {
	return c.verifyCert
}
