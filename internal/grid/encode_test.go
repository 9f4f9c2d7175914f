package grid

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"

	"gridsync/internal/domain"
)

func TestEncodeCell(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want domain.Cell
	}{
		{name: "nil", in: nil, want: domain.Cell{Null: true}},
		{name: "string", in: "hello", want: domain.Cell{Value: "hello"}},
		{name: "empty string stays non-null", in: "", want: domain.Cell{Value: ""}},
		{name: "int", in: int64(42), want: domain.Cell{Value: "42"}},
		{name: "bool", in: true, want: domain.Cell{Value: "true"}},
		{name: "time", in: ts, want: domain.Cell{Value: "2026-03-14T09:26:53Z"}},
		{name: "bytes", in: []byte{0xde, 0xad}, want: domain.Cell{Value: `\xdead`}},
		{
			name: "numeric with fraction",
			in:   pgtype.Numeric{Int: big.NewInt(1250), Exp: -2, Valid: true},
			want: domain.Cell{Value: "12.50"},
		},
		{
			name: "numeric integer",
			in:   pgtype.Numeric{Int: big.NewInt(42), Valid: true},
			want: domain.Cell{Value: "42"},
		},
		{
			name: "tid",
			in:   pgtype.TID{BlockNumber: 0, OffsetNumber: 1, Valid: true},
			want: domain.Cell{Value: "(0,1)"},
		},
		{
			name: "uuid bytes",
			in: [16]byte{
				0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1,
				0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8,
			},
			want: domain.Cell{Value: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		},
		{name: "invalid numeric is null", in: pgtype.Numeric{}, want: domain.Cell{Null: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, encodeCell(tt.in))
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"users"`, quoteIdent("users"))
	assert.Equal(t, `"Mixed Case"`, quoteIdent("Mixed Case"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}

func TestCellArg(t *testing.T) {
	t.Parallel()

	assert.Nil(t, cellArg("ignored", true))
	assert.Equal(t, "x", cellArg("x", false))
	assert.Equal(t, "", cellArg("", false), "empty string is a value, not null")
}
