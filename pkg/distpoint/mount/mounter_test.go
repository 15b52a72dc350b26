package mount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMountTable_Darwin(t *testing.T) {
	out := `/dev/disk1s1 on / (apfs, local, journaled)
devfs on /dev (devfs, local, nobrowse)
//casperadmin@fileserver.pretendco.com/CasperShare on /Volumes/CasperShare (smbfs, nodev, nosuid, mounted by me)
//ro@repo.example.org/JSS%20REPO on /Volumes/JSS REPO (afpfs, nodev, nosuid, mounted by local_me)
`
	entries := parseMountTable(out, "darwin")
	require.Len(t, entries, 4)

	assert.Equal(t, Entry{
		Source:     "//casperadmin@fileserver.pretendco.com/CasperShare",
		MountPoint: "/Volumes/CasperShare",
		FSType:     "smbfs",
	}, entries[2])

	// Mount points with spaces survive parsing.
	assert.Equal(t, Entry{
		Source:     "//ro@repo.example.org/JSS%20REPO",
		MountPoint: "/Volumes/JSS REPO",
		FSType:     "afpfs",
	}, entries[3])
}

func TestParseMountTable_Linux(t *testing.T) {
	out := `proc on /proc type proc (rw,nosuid,nodev,noexec)
//fileserver.pretendco.com/CasperShare on /mnt/casper type cifs (rw,relatime,vers=3.0)
/dev/sda1 on / type ext4 (rw,relatime)
`
	entries := parseMountTable(out, "linux")
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{
		Source:     "//fileserver.pretendco.com/CasperShare",
		MountPoint: "/mnt/casper",
		FSType:     "cifs",
	}, entries[1])
}

func TestParseMountTable_IgnoresGarbage(t *testing.T) {
	entries := parseMountTable("not a mount line\n\n", "linux")
	assert.Empty(t, entries)
}

func TestRemoteIdentityMatches(t *testing.T) {
	id := newRemoteIdentity("fileserver.pretendco.com", "139", "CasperShare")
	fsTypes := ProtocolSMB.fsTypes()

	tests := []struct {
		name  string
		entry Entry
		want  bool
	}{
		{
			name:  "fqdn spelling",
			entry: Entry{Source: "//admin@fileserver.pretendco.com/CasperShare", FSType: "smbfs"},
			want:  true,
		},
		{
			name:  "fqdn with port",
			entry: Entry{Source: "//fileserver.pretendco.com:139/CasperShare", FSType: "cifs"},
			want:  true,
		},
		{
			name:  "short hostname spelling",
			entry: Entry{Source: "//fileserver/CasperShare", FSType: "smbfs"},
			want:  true,
		},
		{
			name:  "short name must not match inside a longer hostname",
			entry: Entry{Source: "//admin@otherfileserver/CasperShare", FSType: "smbfs"},
			want:  false,
		},
		{
			name:  "fqdn must not match a longer suffixed hostname",
			entry: Entry{Source: "//admin@old-fileserver.pretendco.com/CasperShare", FSType: "smbfs"},
			want:  false,
		},
		{
			name:  "wrong share",
			entry: Entry{Source: "//fileserver.pretendco.com/OtherShare", FSType: "smbfs"},
			want:  false,
		},
		{
			name:  "right share, wrong fstype",
			entry: Entry{Source: "//fileserver.pretendco.com/CasperShare", FSType: "afpfs"},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, id.matches(tt.entry, fsTypes))
		})
	}
}

func TestRemoteIdentity_EscapesShareName(t *testing.T) {
	id := newRemoteIdentity("repo.example.org", "", "JSS REPO")
	entry := Entry{Source: "//ro@repo.example.org/JSS%20REPO", FSType: "afpfs"}
	assert.True(t, id.matches(entry, ProtocolAFP.fsTypes()))
}
