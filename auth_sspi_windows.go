//go:build windows

package pgwire

import "github.com/alexbrainman/sspi/negotiate"

// attemptSSPI is reached when the server asks for AuthenticationSSPI on a
// Windows client. As with attemptKerberos, this package stops at acquiring
// the current user's credential handle — enough to report a concrete
// Windows SSPI failure rather than implementing the full negotiate
// handshake the server expects next (spec §1 Non-goals).
func attemptSSPI(cfg Config) error {
	creds, err := negotiate.AcquireCurrentUserCredentials()
	if err != nil {
		return wrapErr(KindSSPINotSupported, err, "acquiring Windows SSPI credentials")
	}
	defer creds.Release()
	return newErr(KindSSPINotSupported, "SSPI negotiate handshake with the server is not implemented")
}
