package config

// CookieConfig defines the shared security baseline for all cookies issued by the server
type CookieConfig struct {
	// Domain for the cookies
	Domain string
	// IsSecure indicates if cookies should be marked as Secure.
	// Off only in local development, where there is no HTTPS.
	IsSecure bool
	// HttpOnly indicates if cookies should be marked as HttpOnly for security
	HttpOnly bool
}
