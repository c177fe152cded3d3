package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		label   string
		want    Format
		wantExt string
		wantErr bool
	}{
		{label: "7z", want: SevenZip, wantExt: "7z"},
		{label: "xz", want: TarXz, wantExt: "tar.xz"},
		{label: "zip", want: Zip, wantExt: "zip"},
		{label: "ZIP", wantErr: true},
		{label: "tar", wantErr: true},
		{label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseFormat(tt.label)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFormat)
				var unsupported *UnsupportedFormatError
				require.ErrorAs(t, err, &unsupported)
				assert.Equal(t, tt.label, unsupported.Label)
				assert.ElementsMatch(t, []string{"7z", "xz", "zip"}, unsupported.Available)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.label, got.Label())
			assert.Equal(t, tt.wantExt, got.Extension())
		})
	}
}

func TestFormat_DefaultIsZip(t *testing.T) {
	var f Format
	assert.Equal(t, Zip, f)
}

func TestFormat_Text(t *testing.T) {
	var f Format
	require.NoError(t, f.UnmarshalText([]byte("xz")))
	assert.Equal(t, TarXz, f)

	text, err := SevenZip.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "7z", string(text))

	_, err = Format(42).MarshalText()
	assert.ErrorIs(t, err, ErrInvalidFormat)

	err = f.UnmarshalText([]byte("rar"))
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.Equal(t, TarXz, f, "failed unmarshal must not modify the value")
}
