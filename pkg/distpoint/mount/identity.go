package mount

import (
	"net"
	"net/url"
	"strings"
)

// remoteIdentity is the set of spellings under which a mounted share may
// appear in the mount table's source column. Admin tooling mounts shares in
// several ways (fqdn/share, fqdn:port/share, bare hostname/share, IP/share),
// so matching on a single canonical string would miss mounts established by
// other tools.
type remoteIdentity struct {
	host  string
	port  string
	share string

	// candidates are "host/share" spellings, pre-computed once.
	candidates []string
}

// newRemoteIdentity builds the identity for a host+share pair. IP-address
// spellings are resolved best-effort; resolution failure just narrows the
// candidate set, it never fails construction.
func newRemoteIdentity(host, port, share string) remoteIdentity {
	id := remoteIdentity{host: host, port: port, share: share}

	// Share names with spaces appear URL-escaped in the mount table.
	escaped := url.PathEscape(share)

	hosts := map[string]bool{host: true}

	// Bare domain name, for FQDNs mounted by their short name.
	if short, _, found := strings.Cut(host, "."); found && short != "" {
		hosts[short] = true
	}

	// IP form: other tools may have mounted by address.
	if addrs, err := net.LookupHost(host); err == nil {
		for _, addr := range addrs {
			hosts[addr] = true
		}
	}

	for h := range hosts {
		id.candidates = append(id.candidates, h+"/"+escaped)
		if port != "" {
			id.candidates = append(id.candidates, h+":"+port+"/"+escaped)
		}
	}
	return id
}

// matches reports whether a mount table entry refers to this share over one
// of the expected filesystem types. The source column carries a
// protocol-specific prefix ("//user@host/share", "afp_...") so the match is
// on containment of a candidate spelling, combined with the fstype check to
// rule out unrelated mounts with similar names. The candidate must start at
// a host boundary: "fileserver/Share" must not match a source for
// "otherfileserver/Share".
func (id remoteIdentity) matches(entry Entry, fsTypes []string) bool {
	typeOK := false
	for _, t := range fsTypes {
		if entry.FSType == t {
			typeOK = true
			break
		}
	}
	if !typeOK {
		return false
	}

	for _, candidate := range id.candidates {
		if containsAtHostBoundary(entry.Source, candidate) {
			return true
		}
	}
	return false
}

// containsAtHostBoundary reports whether candidate occurs in source with no
// hostname character immediately before it, so the match cannot start in the
// middle of a longer hostname.
func containsAtHostBoundary(source, candidate string) bool {
	for start := 0; ; start++ {
		idx := strings.Index(source[start:], candidate)
		if idx < 0 {
			return false
		}
		start += idx
		if start == 0 || !isHostnameByte(source[start-1]) {
			return true
		}
	}
}

func isHostnameByte(b byte) bool {
	return b == '.' || b == '-' ||
		'0' <= b && b <= '9' ||
		'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z'
}
