package aggregation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func scanAll(src string) []token {
	l := newLexer(src)
	var toks []token
	for {
		tok := l.next()
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks
		}
	}
}

func TestLexer_Tokens(t *testing.T) {
	toks := scanAll(" key : (src_ip,dst_ip) ")

	kinds := make([]tokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.kind
	}
	require.Equal(t, []tokenKind{
		tokIdent, tokColon, tokLParen, tokIdent, tokComma, tokIdent, tokRParen, tokEOF,
	}, kinds)

	require.Equal(t, "key", toks[0].val)
	require.Equal(t, 1, toks[0].pos)
	require.Equal(t, "src_ip", toks[3].val)
	require.Equal(t, 8, toks[3].pos)
	require.Equal(t, "dst_ip", toks[5].val)
	require.Equal(t, 15, toks[5].pos)
	require.Equal(t, 23, toks[7].pos)
}

func TestLexer_PeekDoesNotConsume(t *testing.T) {
	l := newLexer("sum(x)")

	require.Equal(t, tokIdent, l.peek().kind)
	require.Equal(t, tokIdent, l.peek().kind)
	require.Equal(t, "sum", l.next().val)
	require.Equal(t, tokLParen, l.next().kind)
}

func TestLexer_EmptyInput(t *testing.T) {
	toks := scanAll("   ")
	require.Len(t, toks, 1)
	require.Equal(t, tokEOF, toks[0].kind)
	require.Equal(t, 3, toks[0].pos)
}

func TestCheckCharacters(t *testing.T) {
	tests := []struct {
		name       string
		fragment   string
		wantOffset int
		wantToken  string
	}{
		{name: "plain reduce term", fragment: "sum(bytes)", wantOffset: -1},
		{name: "key list with whitespace", fragment: "key: ( a ,\tb )", wantOffset: -1},
		{name: "dash", fragment: "sum(src-ip)", wantOffset: 7, wantToken: "-"},
		{name: "semicolon", fragment: "sum(a);", wantOffset: 6, wantToken: ";"},
		{name: "non ascii", fragment: "sum(débit)", wantOffset: 5, wantToken: "é"},
		{name: "dot", fragment: "sum(a.b)", wantOffset: 5, wantToken: "."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := checkCharacters(tc.fragment)
			if tc.wantOffset < 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidCharacters))

			var exprErr *InvalidExpressionError
			require.True(t, errors.As(err, &exprErr))
			require.Equal(t, tc.fragment, exprErr.Fragment)
			require.Equal(t, tc.wantOffset, exprErr.Offset)
			require.Equal(t, tc.wantToken, exprErr.Token)
		})
	}
}
