// Package accounts implements the account lifecycle: registration, credential
// verification, email confirmation, lockout on repeated failed logins and
// account removal.
//
// Lifecycle:
//   - Lifecycle exposes Register, Login, ConfirmEmail and RemoveAccount. Each
//     takes a flat command and returns an Outcome. Domain rejections are
//     outcomes, the error return is reserved for infrastructure faults such as
//     ErrStoreUnavailable.
//   - Login checks run in a fixed order: existence, confirmed email, lockout,
//     password. Unconfirmed accounts never touch the failed attempt counter.
//
// Persistence:
//   - NewAccountsRepository is a Bun backed CredentialStore. Email uniqueness
//     is a unique index on the normalized email and failed attempts are
//     counted with a single UPDATE so concurrent logins never lose an
//     increment.
//
// Confirmation tokens:
//   - ConfirmationTokenService signs HS256 tokens bound to the account id,
//     email and security stamp. The stamp rotates when the email is confirmed,
//     which makes every token single use.
//
// Activity sinks:
//   - ActivitySink receives registration, login, lockout, confirmation and
//     removal events. Sinks run best-effort (errors are logged) and never
//     change an outcome. See the activitymap package for a normalized shape.
package accounts
