// Package session owns the login state of petadm.
//
// A Manager logs in against the authentication endpoint, persists the token
// pair and the cached user in a credstore.Store, renews the pair with the
// refresh token, and clears everything on logout. The current session is
// exposed as an observable State: the manager is its only writer, callers read
// it with State or follow it with Subscribe.
//
//	Anonymous --Login--> Authenticated --Refresh--> Authenticated
//	Authenticated --Logout | missing refresh token--> Anonymous
//
// A failed network refresh does not log out by itself; the caller (the
// request pipeline) decides. Concurrent refreshes of the same refresh token
// share one network call.
package session
