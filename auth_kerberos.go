package pgwire

import (
	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/config"
)

// attemptKerberos is reached when the server asks for AuthenticationKerberosV5.
// This package does not implement the GSSAPI ticket exchange itself (spec §1
// Non-goals) — it goes only as far as loading the local krb5 configuration,
// building a client and attempting a password login, so that it can
// surface whichever failure the krb5 library reports rather than a bare
// "not supported" string. Whether or not the login succeeds, the result is
// a KindKerberosNotSupported error.
func attemptKerberos(cfg Config) error {
	krb5Cfg, err := config.Load("/etc/krb5.conf")
	if err != nil {
		return wrapErr(KindKerberosNotSupported, err, "loading krb5 configuration")
	}
	cl := client.NewWithPassword(cfg.Username, krb5Cfg.LibDefaults.DefaultRealm, cfg.Password, krb5Cfg)
	if err := cl.Login(); err != nil {
		return wrapErr(KindKerberosNotSupported, err, "Kerberos login for %s", cfg.Username)
	}
	return newErr(KindKerberosNotSupported, "Kerberos ticket exchange with the server is not implemented")
}
