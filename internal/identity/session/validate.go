package session

import "time"

// Validate enforces the cross-cookie invariants and returns the surviving
// components. The checks run in a fixed order since each one depends on the
// outcome of the previous:
//
//  1. an expired token login is dropped;
//  2. the user is dropped unless a surviving token login names the same user;
//  3. the external login is dropped unless its linked user matches the
//     surviving user, where no linked user matches no user.
func Validate(
	now time.Time,
	user *CurrentUser,
	external *ExternalLogin,
	token *TokenLogin,
) (*CurrentUser, *ExternalLogin, *TokenLogin) {
	if token != nil && token.Expires.Before(now) {
		token = nil
	}

	if user != nil && (token == nil || token.UserID != user.UserID) {
		user = nil
	}

	if external != nil {
		linked := external.LinkedUser
		switch {
		case linked == nil && user == nil:
		case linked != nil && user != nil && linked.UserID == user.UserID:
		default:
			external = nil
		}
	}

	return user, external, token
}
