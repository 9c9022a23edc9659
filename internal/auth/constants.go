package auth

// CookieName is the cookie that mirrors the bearer token in the browser.
// It is shared by the edge guard, the login/logout handlers and the console jar.
const CookieName = "jwt"

// CookieTTLDays is how long the mirrored cookie lives.
const CookieTTLDays = 7

// PersistKey names the durable bucket holding the console's cookie jar.
const PersistKey = "auth-storage"
