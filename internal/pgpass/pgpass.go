// Package pgpass looks up a password in a libpq-style .pgpass file, so
// Config never needs a Password set explicitly when one is recorded there
// (spec §6 is silent on password sourcing beyond the Config field itself;
// this ambient lookup mirrors libpq/the teacher's own behavior rather than
// inventing a new one).
package pgpass

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wirepg/pgwire/internal/pqutil"
)

// Lookup scans the .pgpass file (passfile, or ~/.pgpass if empty) for a
// line matching host/port/dbname/user, returning its password field or ""
// if nothing matches or the file can't be used.
func Lookup(host string, port uint16, dbname, user, passfile string) string {
	filename := pqutil.Pgpass(passfile)
	if filename == "" {
		return ""
	}

	fp, err := os.Open(filename)
	if err != nil {
		return ""
	}
	defer fp.Close()

	portStr := strconv.Itoa(int(port))
	socket := host == "" || filepath.IsAbs(host) || strings.HasPrefix(host, "@")

	scan := bufio.NewScanner(fp)
	for scan.Scan() {
		line := scan.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		split := splitFields(line)
		if len(split) != 5 {
			continue
		}
		if (split[0] == "*" || split[0] == host || (split[0] == "localhost" && socket)) &&
			(split[1] == "*" || split[1] == portStr) &&
			(split[2] == "*" || split[2] == dbname) &&
			(split[3] == "*" || split[3] == user) {
			return split[4]
		}
	}
	return ""
}

func splitFields(s string) []string {
	var (
		fs  = make([]string, 0, 5)
		f   = make([]rune, 0, len(s))
		esc bool
	)
	for _, c := range s {
		switch {
		case esc:
			f, esc = append(f, c), false
		case c == '\\':
			esc = true
		case c == ':':
			fs, f = append(fs, string(f)), f[:0]
		default:
			f = append(f, c)
		}
	}
	return append(fs, string(f))
}
