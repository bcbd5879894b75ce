//go:build !windows

package pgwire

// attemptSSPI is reached when the server asks for AuthenticationSSPI on a
// non-Windows client, where the mechanism cannot be negotiated at all —
// alexbrainman/sspi is a Windows-only package (spec §1 Non-goals; its
// Windows counterpart lives in auth_sspi_windows.go).
func attemptSSPI(cfg Config) error {
	return newErr(KindSSPINotSupported, "SSPI authentication requires a Windows client")
}
