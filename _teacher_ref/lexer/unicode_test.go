package lexer

import (
	"testing"
)

// TestUnicodeIdentifiers tests that Unicode letters are recognized as identifiers
func TestUnicodeIdentifiers(t *testing.T) {
	tests := []struct {
		input    string
		expected []struct {
			tokenType TokenType
			literal   string
		}
	}{
		{
			input: "let Ï€ = 3.14",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{LET, "let"},
				{IDENT, "Ï€"},
				{ASSIGN, "="},
				{FLOAT, "3.14"},
				{EOF, ""},
			},
		},
		{
			input: "let Î± = 1",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{LET, "let"},
				{IDENT, "Î±"},
				{ASSIGN, "="},
				{INT, "1"},
				{EOF, ""},
			},
		},
		{
			input: "let æ—¥æœ¬èª = true",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{LET, "let"},
				{IDENT, "æ—¥æœ¬èª"},
				{ASSIGN, "="},
				{TRUE, "true"},
				{EOF, ""},
			},
		},
		{
			input: "let Î© = false",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{LET, "let"},
				{IDENT, "Î©"},
				{ASSIGN, "="},
				{FALSE, "false"},
				{EOF, ""},
			},
		},
		{
			input: "let Î±Î²Î³ = Î± + Î²",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{LET, "let"},
				{IDENT, "Î±Î²Î³"},
				{ASSIGN, "="},
				{IDENT, "Î±"},
				{PLUS, "+"},
				{IDENT, "Î²"},
				{EOF, ""},
			},
		},
		{
			input: "fn è®¡ç®—(æ•°å€¼) { return æ•°å€¼ * 2 }",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{FUNCTION, "fn"},
				{IDENT, "è®¡ç®—"},
				{LPAREN, "("},
				{IDENT, "æ•°å€¼"},
				{RPAREN, ")"},
				{LBRACE, "{"},
				{RETURN, "return"},
				{IDENT, "æ•°å€¼"},
				{ASTERISK, "*"},
				{INT, "2"},
				{RBRACE, "}"},
				{EOF, ""},
			},
		},
		// Mixed ASCII and Unicode
		{
			input: "let piValue = Ï€",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{LET, "let"},
				{IDENT, "piValue"},
				{ASSIGN, "="},
				{IDENT, "Ï€"},
				{EOF, ""},
			},
		},
		// Unicode followed by digits
		{
			input: "let Î±1 = 1",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{LET, "let"},
				{IDENT, "Î±1"},
				{ASSIGN, "="},
				{INT, "1"},
				{EOF, ""},
			},
		},
		// Russian identifier
		{
			input: "let Ğ¿Ñ€Ğ¸Ğ²ĞµÑ‚ = true",
			expected: []struct {
				tokenType TokenType
				literal   string
			}{
				{LET, "let"},
				{IDENT, "Ğ¿Ñ€Ğ¸Ğ²ĞµÑ‚"},
				{ASSIGN, "="},
				{TRUE, "true"},
				{EOF, ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)

			for i, expectedToken := range tt.expected {
				tok := l.NextToken()

				if tok.Type != expectedToken.tokenType {
					t.Fatalf("token %d: type wrong. expected=%q, got=%q (literal=%q)",
						i, expectedToken.tokenType, tok.Type, tok.Literal)
				}

				if tok.Literal != expectedToken.literal {
					t.Fatalf("token %d: literal wrong. expected=%q, got=%q",
						i, expectedToken.literal, tok.Literal)
				}
			}
		})
	}
}

// TestUnicodeInStrings tests that Unicode in string literals is preserved
func TestUnicodeInStrings(t *testing.T) {
	tests := []struct {
		input          string
		expectedString string
	}{
		{`"Hello, ä¸–ç•Œ!"`, "Hello, ä¸–ç•Œ!"},
		{`"Ï€ â‰ˆ 3.14"`, "Ï€ â‰ˆ 3.14"},
		{`"emoji: ğŸ‰ğŸŠğŸˆ"`, "emoji: ğŸ‰ğŸŠğŸˆ"},
		{`"ä¸­æ–‡å­—ç¬¦"`, "ä¸­æ–‡å­—ç¬¦"},
		{`"ĞŸÑ€Ğ¸Ğ²ĞµÑ‚ Ğ¼Ğ¸Ñ€"`, "ĞŸÑ€Ğ¸Ğ²ĞµÑ‚ Ğ¼Ğ¸Ñ€"},
		{`"Ù…Ø±Ø­Ø¨Ø§"`, "Ù…Ø±Ø­Ø¨Ø§"},
		{`"×©×œ×•×"`, "×©×œ×•×"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			tok := l.NextToken()

			if tok.Type != STRING {
				t.Fatalf("expected STRING token, got %s", tok.Type)
			}

			if tok.Literal != tt.expectedString {
				t.Fatalf("string content wrong. expected=%q, got=%q", tt.expectedString, tok.Literal)
			}
		})
	}
}

// TestUnicodeCurrencySymbols tests that Unicode currency symbols still work
func TestUnicodeCurrencySymbols(t *testing.T) {
	tests := []struct {
		input    string
		expected struct {
			tokenType TokenType
			literal   string
		}
	}{
		{"Â£100", struct {
			tokenType TokenType
			literal   string
		}{MONEY, "GBP#100.00"}},
		{"â‚¬50", struct {
			tokenType TokenType
			literal   string
		}{MONEY, "EUR#50.00"}},
		{"Â¥1000", struct {
			tokenType TokenType
			literal   string
		}{MONEY, "JPY#1000"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			tok := l.NextToken()

			if tok.Type != tt.expected.tokenType {
				t.Fatalf("token type wrong. expected=%q, got=%q", tt.expected.tokenType, tok.Type)
			}

			if tok.Literal != tt.expected.literal {
				t.Fatalf("literal wrong. expected=%q, got=%q", tt.expected.literal, tok.Literal)
			}
		})
	}
}
