package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/esptools/internal/testutil"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(content)
}

func TestZipSuffixMatch(t *testing.T) {
	data := testutil.ZipBytes(t,
		testutil.File{Name: "esptool-v4.8.1-linux-amd64/", Dir: true},
		testutil.File{Name: "esptool-v4.8.1-linux-amd64/README.md", Content: "readme"},
		testutil.File{Name: "esptool-v4.8.1-linux-amd64/esptool", Content: "esptool-binary"},
		testutil.File{Name: "esptool-v4.8.1-linux-amd64/espefuse", Content: "espefuse-binary"},
	)

	zr, err := OpenZip(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.Len(t, zr.Names(), 4)

	rc, err := zr.Find("esptool")
	require.NoError(t, err)
	require.Equal(t, "esptool-binary", readAll(t, rc))

	name, ok := zr.Lookup("espefuse")
	require.True(t, ok)
	require.Equal(t, "esptool-v4.8.1-linux-amd64/espefuse", name)

	_, err = zr.Find("espsecure")
	require.ErrorIs(t, err, ErrEntryNotFound)

	_, err = zr.Find("esptool.exe")
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestZipFirstMatchWins(t *testing.T) {
	data := testutil.ZipBytes(t,
		testutil.File{Name: "a/esptool", Content: "first"},
		testutil.File{Name: "b/esptool", Content: "second"},
	)

	zr, err := OpenZip(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	rc, err := zr.Find("esptool")
	require.NoError(t, err)
	require.Equal(t, "first", readAll(t, rc))
}

func TestZipWindowsSuffix(t *testing.T) {
	data := testutil.ZipBytes(t,
		testutil.File{Name: "esptool-win64/esptool.exe", Content: "pe-binary"},
	)

	zr, err := OpenZip(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	rc, err := zr.Find("esptool.exe")
	require.NoError(t, err)
	require.Equal(t, "pe-binary", readAll(t, rc))

	_, err = zr.Find("esptool")
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestOpenZip_Malformed(t *testing.T) {
	data := []byte("this is not a zip archive")

	_, err := OpenZip(bytes.NewReader(data), int64(len(data)))
	require.ErrorIs(t, err, ErrContainerMalformed)
}

func TestFindTarGz_ExactMatch(t *testing.T) {
	data := testutil.TarGzBytes(t,
		testutil.File{Name: "espidfnvs-v0.0.1-win64/", Dir: true},
		testutil.File{Name: "espidfnvs-v0.0.1-win64/espidfnvs.exe", Content: "nvs-exe"},
	)

	tests := []struct {
		name    string
		want    string
		content string
		wantErr error
	}{
		{
			name:    "windows_name_matches",
			want:    "espidfnvs.exe",
			content: "nvs-exe",
		},
		{
			name:    "base_name_does_not_match",
			want:    "espidfnvs",
			wantErr: ErrEntryNotFound,
		},
		{
			name:    "suffix_is_not_relaxed",
			want:    "nvs.exe",
			wantErr: ErrEntryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := FindTarGz(bytes.NewReader(data), tt.want)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.content, readAll(t, rc))
		})
	}
}

func TestFindTarGz_SkipsDirectories(t *testing.T) {
	data := testutil.TarGzBytes(t,
		testutil.File{Name: "espidfnvs/", Dir: true},
		testutil.File{Name: "release/espidfnvs", Content: "nvs-binary"},
	)

	rc, err := FindTarGz(bytes.NewReader(data), "espidfnvs")
	require.NoError(t, err)
	require.Equal(t, "nvs-binary", readAll(t, rc))
}

func TestFindTarGz_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "not_gzip",
			data: []byte("plain text"),
		},
		{
			name: "gzip_but_not_tar",
			data: testutil.GzipBytes(t, "this is definitely not a tar header block"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindTarGz(bytes.NewReader(tt.data), "espidfnvs")
			require.ErrorIs(t, err, ErrContainerMalformed)
		})
	}
}

func TestOpen(t *testing.T) {
	zipData := testutil.ZipBytes(t, testutil.File{Name: "pkg/espsecure", Content: "secure"})
	tarData := testutil.TarGzBytes(t, testutil.File{Name: "pkg/espidfnvs", Content: "nvs"})
	gzData := testutil.GzipBytes(t, "efuse")

	tests := []struct {
		name    string
		format  Format
		data    []byte
		entry   string
		content string
	}{
		{name: "zip", format: FormatZip, data: zipData, entry: "espsecure", content: "secure"},
		{name: "tar_gz", format: FormatTarGz, data: tarData, entry: "espidfnvs", content: "nvs"},
		{name: "gzip_ignores_name", format: FormatGzip, data: gzData, entry: "anything", content: "efuse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := Open(tt.format, tt.data, tt.entry)
			require.NoError(t, err)
			require.Equal(t, tt.content, readAll(t, rc))
		})
	}

	_, err := Open(Format("rar"), zipData, "espsecure")
	require.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "esptool-v4.8.1-linux-amd64.zip", want: FormatZip},
		{name: "espidfnvs-v0.0.1-aarch64.tar.gz", want: FormatTarGz},
		{name: "espidfnvs.tgz", want: FormatTarGz},
		{name: "esptool.gz", want: FormatGzip},
		{name: "esptool.tar.xz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatOf(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("tar.gz")
	require.NoError(t, err)
	require.Equal(t, FormatTarGz, f)

	_, err = ParseFormat("7z")
	require.Error(t, err)
}
