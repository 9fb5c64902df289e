// Package identitysdk is a Go client for the JSON endpoints of the identity
// service, and the home of the response and error types shared with the
// server.
//
// The browser facing endpoints (login, link, logout, ...) are driven by
// redirects and cookies and have no client here. The JSON endpoints that
// describe the current session need the session cookies, so a client calling
// them on behalf of a user must carry the user's cookie jar:
//
//	jar, _ := cookiejar.New(nil)
//	client := identitysdk.NewSDKClient("https://auth.example.com/identity")
//	client.HTTPClient.Jar = jar
//
//	info, err := client.GetUserInfo(ctx)
//	if identitysdk.IsErrorType(err, identitysdk.ErrorTypeLoginRequired) {
//		// not signed in
//	}
package identitysdk
