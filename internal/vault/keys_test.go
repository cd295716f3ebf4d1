package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/checkpointhq/checkpoint/pkg/idx"
)

func TestObjectKey(t *testing.T) {
	uid := idx.MustParse("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	at := time.Date(2025, time.July, 3, 14, 25, 36, 0, time.UTC)

	t.Run("with category", func(t *testing.T) {
		key := ObjectKey(uid, DataTypeImage, "holiday", "beach.jpg", at)
		require.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV/images/holiday/2025/07/142536_beach.jpg", key)
	})

	t.Run("without category", func(t *testing.T) {
		key := ObjectKey(uid, DataTypeDocument, "", "report.pdf", at)
		require.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV/documents/2025/07/142536_report.pdf", key)
	})

	t.Run("hostile filename stays inside the prefix", func(t *testing.T) {
		key := ObjectKey(uid, DataTypeAttachment, "", "../../etc/passwd", at)
		require.True(t, Owns(uid, key))
		require.NotContains(t, key, "..")
	})
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"beach.jpg", "beach.jpg"},
		{"my photo (1).png", "my_photo__1_.png"},
		{"../../etc/passwd", "passwd"},
		{"C:\\Users\\x\\doc.pdf", "doc.pdf"},
		{"", "file"},
		{"...", "file"},
		{"résumé.pdf", "r_sum_.pdf"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, SafeFilename(tt.in), "input %q", tt.in)
	}
}

func TestOwns(t *testing.T) {
	alice := idx.MustParse("01ARZ3NDEKTSV4RRFFQ69G5FAV")
	mallory := idx.MustParse("01BX5ZZKBKACTAV9WEVGEMMVRZ")

	key := ObjectKey(alice, DataTypeImage, "", "x.jpg", time.Now())
	require.True(t, Owns(alice, key))
	require.False(t, Owns(mallory, key))

	// Prefix matching is on whole segments; a user id that happens to be a
	// prefix of another must not pass.
	require.False(t, Owns(alice, string(alice)+"X/images/x.jpg"))
}

func TestSizeLimit(t *testing.T) {
	for dt, want := range map[DataType]int64{
		DataTypeImage:      10 << 20,
		DataTypeDocument:   100 << 20,
		DataTypeAttachment: 50 << 20,
	} {
		got, err := SizeLimit(dt)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := SizeLimit(DataType("videos"))
	require.ErrorIs(t, err, ErrUnknownDataType)
}
