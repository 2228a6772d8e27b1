// Package identity is the identity and token-verification core of the
// ClientEase business-management application.
//
// Credentials:
//   - Passwords are stored as bcrypt hashes with per-invocation salts.
//     CheckPassword is the only signal callers get about a credential check;
//     it never reports why a check failed.
//
// Purpose tokens:
//   - TokenCodec issues stateless, signed, time-bound tokens over an email
//     address. Each purpose (password reset, email verification) signs with a
//     key derived from its own salt, so a token minted for one purpose cannot
//     be replayed for another. Tokens are not persisted and cannot be revoked
//     before their 24h expiry.
//
// Verification:
//   - Users are created unverified. VerificationStateMachine owns the single
//     pending -> confirmed transition and the access gate that keeps
//     unverified accounts away from protected resources.
//
// Auditing:
//   - AuditSink receives structured auth events (login success/failure,
//     registration, logout, resets). Sinks run best-effort; a sink failure is
//     logged and never interrupts the authentication flow.
package identity
