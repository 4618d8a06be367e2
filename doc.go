// Package auth verifies bearer tokens for the fitness app API and resolves
// them to the stored user.
//
// Authentication pipeline:
//   - TokenService validates HS256 tokens (golang-jwt) with the primary
//     secret, or with a rotation secret selected by the kid header, and
//     mints new tokens for login and registration.
//   - Authenticator runs validation and the user lookup and returns the
//     Identity projection (id, email, name). Every failure is an AuthError
//     carrying one FailureKind; the kinds map to fixed HTTP statuses and
//     client messages.
//   - The jwtware middleware is a go-router middleware that runs the
//     Authenticator in strict or optional mode. It stores the Identity in
//     the request locals and the request context, read back with
//     IdentityFromRouter or FromContext.
//
// User store:
//   - Users embeds a go-repository-bun repository over the users table and
//     keeps a second one for profiles. Write failures are wrapped by the
//     persistence package into go-errors categories so the HTTP error
//     normalizer can classify constraint violations.
//   - RegisterUserHandler and LoginUserHandler implement the account
//     commands on top of the RepositoryManager.
package auth
