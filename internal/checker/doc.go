// Package checker implements the four independent trust-signal probes.
//
// Architecture overview:
//
//   - Each probe (DomainAgeChecker, CertificateChecker, CipherChecker,
//     DNSChecker) implements the Checker interface (Check + Name) and owns
//     its own network connections. Probes never return a Go error: every
//     failure is caught at the probe boundary and mapped onto the returned
//     CheckResult so the aggregation step always has a result to work with.
//   - CheckResult carries exactly one typed payload (DomainAge, Certificate,
//     Cipher, or DNS) plus a status and an optional error string.
//   - CheckError classifies failures into a closed set of kinds (timeout,
//     not-found, protocol, config) so callers can branch on the kind instead
//     of inspecting free-text messages.
//   - NormalizeDomain reduces any caller-supplied URL or host:port string to
//     the bare registrable hostname the probes operate on.
//
// Scoring lives in internal/scoring; probes only gather facts.
package checker
