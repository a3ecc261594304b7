package fetch

import (
	"fmt"
	"net/url"
)

// Proxy holds forward-proxy credentials and the target region tag. The
// proxy vendor selects an exit country from a suffix on the username.
type Proxy struct {
	Host     string
	Port     int
	User     string
	Password string
	Country  string
}

// Complete reports whether every credential component is present.
func (p Proxy) Complete() bool {
	return p.Host != "" && p.Port > 0 && p.User != "" && p.Password != ""
}

// url renders the proxy endpoint with the country-tagged username.
func (p Proxy) url() string {
	country := p.Country
	if country == "" {
		country = defaultProxyCountry
	}
	user := url.UserPassword(fmt.Sprintf("%s-country-%s", p.User, country), p.Password)
	return fmt.Sprintf("http://%s@%s:%d", user.String(), p.Host, p.Port)
}

const defaultProxyCountry = "us"
