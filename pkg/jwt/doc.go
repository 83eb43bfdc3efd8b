// Package jwt provides JSON Web Token utilities for the EventSphere API.
//
// Tokens are HS256-signed with a shared secret and carry the user id the
// auth middleware resolves against the store on every request.
//
//	svc, err := jwt.NewService(jwt.Config{
//	    Secret:     cfg.Auth.JWTSecret,
//	    Issuer:     "eventsphere",
//	    Expiration: 24 * time.Hour,
//	})
//
//	token, err := svc.Issue(user.ID, user.Email)
//
//	claims, err := svc.Validate(token)
//	if errors.Is(err, jwt.ErrTokenExpired) {
//	    // ask the client to sign in again
//	}
package jwt
